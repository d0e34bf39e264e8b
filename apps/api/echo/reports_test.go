package echoapi

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/school"
)

// the dummy renderer stamps this prefix on everything it produces
var pdfMagic = []byte("%PDF-1.4 ")

func Test_reportsApi_pdf(t *testing.T) {
	srv, svcs := setup(t)
	stf := createTestStaff(t, svcs.staffSvc)
	token := getToken(t, stf)
	ctx := context.Background()

	sec, err := svcs.schoolSvc.CreateSection(ctx, school.NewClassSection{Name: "3A", Itinerary: "Sciences"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	stu, err := svcs.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", SectionID: sec.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if err := svcs.attendanceSvc.RecordRollCall(ctx, attendance.RollCall{
		SectionID: sec.ID,
		Date:      "2026-03-02",
		Entries:   map[string]string{stu.ID: "F"},
	}, stf.ID); err != nil {
		t.Fatalf("RecordRollCall() failed: %v", err)
	}

	checkPDF := func(t *testing.T, path string) {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s failed! code = %v; body = %s", path, rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != pdfContentType {
			t.Errorf("content type = %q; want %q", ct, pdfContentType)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), pdfMagic) {
			t.Errorf("body does not look like a PDF: %q", rec.Body.String())
		}
	}

	t.Run("student absences", func(t *testing.T) {
		checkPDF(t, "/v1/reports/students/"+stu.ID+"/absences.pdf")

		docs := svcs.docSvc.RenderedDocuments
		if len(docs) == 0 {
			t.Fatal("no document was rendered")
		}
		last := docs[len(docs)-1]
		if last.Title != "Absence Report" || last.Subtitle != stu.Name {
			t.Errorf("document = %q / %q; want the student's absence report", last.Title, last.Subtitle)
		}
	})

	t.Run("section attendance", func(t *testing.T) {
		checkPDF(t, "/v1/reports/sections/"+sec.ID+"/attendance.pdf")
	})

	t.Run("contract", func(t *testing.T) {
		if _, err := svcs.schoolSvc.CreateContract(ctx, stu.ID); err != nil {
			t.Fatalf("CreateContract() failed: %v", err)
		}
		checkPDF(t, "/v1/reports/students/"+stu.ID+"/contract.pdf")
	})

	t.Run("warning notice", func(t *testing.T) {
		wrn, err := svcs.disciplineSvc.CreateWarning(ctx, discipline.NewWarning{
			StudentID: stu.ID,
			Date:      "2026-04-10",
			Reason:    "Repeated tardiness",
		})
		if err != nil {
			t.Fatalf("CreateWarning() failed: %v", err)
		}
		checkPDF(t, "/v1/reports/warnings/"+wrn.ID+"/notice.pdf")
	})

	t.Run("report card", func(t *testing.T) {
		sub, err := svcs.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
		if err != nil {
			t.Fatalf("CreateSubject() failed: %v", err)
		}
		if _, err := svcs.gradebookSvc.Upsert(ctx, gradebook.UpsertGrade{
			StudentID: stu.ID, SubjectID: sub.ID, Period: 1, Value: 88,
		}); err != nil {
			t.Fatalf("Upsert() failed: %v", err)
		}
		checkPDF(t, "/v1/reports/students/"+stu.ID+"/report-card.pdf")
	})

	t.Run("report card rejects a bad period", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/students/"+stu.ID+"/report-card.pdf?period=9", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "period must be an integer between 1 and 4"}),
		}, rec)
	})

	t.Run("unknown student is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/students/nope/absences.pdf", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "resource not found"}),
		}, rec)
	})
}

func Test_reportsApi_charts(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))
	ctx := context.Background()

	stu, err := svcs.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	t.Run("no grades yields 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/students/"+stu.ID+"/performance.png", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "no data to chart"}),
		}, rec)
	})

	t.Run("renders a PNG once grades exist", func(t *testing.T) {
		for _, name := range []string{"Mathematics", "History"} {
			sub, err := svcs.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: name})
			if err != nil {
				t.Fatalf("CreateSubject() failed: %v", err)
			}
			if _, err := svcs.gradebookSvc.Upsert(ctx, gradebook.UpsertGrade{
				StudentID: stu.ID, SubjectID: sub.ID, Period: 1, Value: 80,
			}); err != nil {
				t.Fatalf("Upsert() failed: %v", err)
			}
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/students/"+stu.ID+"/performance.png", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("chart failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != pngContentType {
			t.Errorf("content type = %q; want %q", ct, pngContentType)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty chart body")
		}
	})
}
