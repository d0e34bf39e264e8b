package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/school"
)

func Test_gradebookApi_grades(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))

	t.Run("upsert overwrites", func(t *testing.T) {
		body := marchallObj(t, gradebook.UpsertGrade{StudentID: "stu-1", SubjectID: "math", Period: 1, Value: 55})
		req, rec := newAuthRequest(http.MethodPost, "/v1/gradebook/grades", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var first gradebook.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
			t.Fatalf("unmarshalling Grade failed: %v", err)
		}

		body = marchallObj(t, gradebook.UpsertGrade{StudentID: "stu-1", SubjectID: "math", Period: 1, Value: 80})
		req, rec = newAuthRequest(http.MethodPost, "/v1/gradebook/grades", token, body)
		srv.ServeHTTP(rec, req)
		var second gradebook.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
			t.Fatalf("unmarshalling Grade failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("expected the same grade to be overwritten; got %q and %q", first.ID, second.ID)
		}
		if second.Value != 80 {
			t.Errorf("value = %v; want 80", second.Value)
		}
	})

	t.Run("out-of-range value is 400", func(t *testing.T) {
		body := marchallObj(t, gradebook.UpsertGrade{StudentID: "stu-1", SubjectID: "math", Period: 1, Value: 120})
		req, rec := newAuthRequest(http.MethodPost, "/v1/gradebook/grades", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("batch", func(t *testing.T) {
		body := marchallObj(t, gradebook.UpsertBatch{
			SectionID: "sec-1",
			Period:    2,
			Cells: []gradebook.BatchCell{
				{StudentID: "stu-1", SubjectID: "math", Value: "70"},
				{StudentID: "stu-2", SubjectID: "math", Value: ""}, // blank: skipped
				{StudentID: "stu-3", SubjectID: "math", Value: "90"},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/gradebook/grades/batch", token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, BatchResponse{Recorded: 2}),
		}, rec)
	})

	t.Run("batch with a bad cell is 400", func(t *testing.T) {
		body := marchallObj(t, gradebook.UpsertBatch{
			SectionID: "sec-1",
			Period:    2,
			Cells: []gradebook.BatchCell{
				{StudentID: "stu-1", SubjectID: "math", Value: "101"},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/gradebook/grades/batch", token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"cells[0].value": "grade value must be between 0 and 100"}),
		}, rec)
	})

	t.Run("query by period", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/gradebook/grades?student_id=stu-1&period=2", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var grades []gradebook.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &grades); err != nil {
			t.Fatalf("unmarshalling grades failed: %v", err)
		}
		if len(grades) != 1 {
			t.Errorf("grades = %d; want 1", len(grades))
		}
	})

	t.Run("average", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/gradebook/students/stu-1/average", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, gradebook.Average{Value: 75, OK: true}),
		}, rec)
	})
}

func Test_gradebookApi_reportCard(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))
	ctx := context.Background()

	sub, err := svcs.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	stu, err := svcs.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if _, err := svcs.gradebookSvc.Upsert(ctx, gradebook.UpsertGrade{StudentID: stu.ID, SubjectID: sub.ID, Period: 1, Value: 88}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	t.Run("whole year by default", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/gradebook/students/"+stu.ID+"/report-card", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("report card failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var card gradebook.ReportCard
		if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
			t.Fatalf("unmarshalling ReportCard failed: %v", err)
		}
		if card.Period != 0 || len(card.Lines) != 1 {
			t.Errorf("card = %+v; want full-year card with 1 line", card)
		}
	})

	t.Run("invalid period is 400", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/gradebook/students/"+stu.ID+"/report-card?period=5", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "period must be an integer between 1 and 4"}),
		}, rec)
	})

	t.Run("unknown student is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/gradebook/students/nope/report-card", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "resource not found"}),
		}, rec)
	})
}
