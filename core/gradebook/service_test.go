package gradebook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/school"
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

type testDeps struct {
	svc       *gradebook.Service
	schoolSvc *school.Service
	attSvc    *attendance.Service
}

func setup(t *testing.T) testDeps {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db))
	attSvc := attendance.NewService(dummydb.NewAttendanceRepository(db))
	svc := gradebook.NewService(dummydb.NewGradebookRepository(db), schoolSvc, attSvc)
	return testDeps{svc: svc, schoolSvc: schoolSvc, attSvc: attSvc}
}

func upsert(t *testing.T, svc *gradebook.Service, studentID, subjectID string, period int, value float64) gradebook.Grade {
	g, err := svc.Upsert(context.Background(), gradebook.UpsertGrade{
		StudentID: studentID,
		SubjectID: subjectID,
		Period:    period,
		Value:     value,
	})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	return g
}

func TestService_Upsert_Overwrite(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	first := upsert(t, deps.svc, "stu-1", "math", 1, 55)
	second := upsert(t, deps.svc, "stu-1", "math", 1, 80)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 80.0, second.Value)

	// a different period is a different grade
	third := upsert(t, deps.svc, "stu-1", "math", 2, 60)
	assert.NotEqual(t, first.ID, third.ID)

	grades, err := deps.svc.QueryGrades(ctx, gradebook.QueryFilter{StudentID: "stu-1"})
	assert.NoError(t, err)
	assert.Len(t, grades, 2)
}

func TestService_UpsertBatch(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	// blank cells are skipped, not written as zero
	recorded, err := deps.svc.UpsertBatch(ctx, gradebook.UpsertBatch{
		SectionID: "sec-1",
		Period:    1,
		Cells: []gradebook.BatchCell{
			{StudentID: "stu-1", SubjectID: "math", Value: "75.5"},
			{StudentID: "stu-2", SubjectID: "math", Value: ""},
			{StudentID: "stu-3", SubjectID: "math", Value: "90"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, recorded)

	grades, err := deps.svc.QueryGrades(ctx, gradebook.QueryFilter{SubjectID: "math"})
	assert.NoError(t, err)
	assert.Len(t, grades, 2)
}

func TestService_UpsertBatch_BadCell(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		value     string
		wantField string
	}{
		{"not a number", "abc", "cells[1].value"},
		{"over the scale", "101", "cells[1].value"},
		{"negative", "-1", "cells[1].value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deps.svc.UpsertBatch(ctx, gradebook.UpsertBatch{
				SectionID: "sec-1",
				Period:    1,
				Cells: []gradebook.BatchCell{
					{StudentID: "stu-1", SubjectID: "math", Value: "80"},
					{StudentID: "stu-2", SubjectID: "math", Value: tt.value},
				},
			})
			var vErr *core.ValidationError
			if assert.True(t, errors.As(err, &vErr)) {
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			}
		})
	}

	// one bad cell means nothing was written
	grades, err := deps.svc.QueryGrades(ctx, gradebook.QueryFilter{SubjectID: "math"})
	assert.NoError(t, err)
	assert.Empty(t, grades)
}

func TestService_Averages(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	upsert(t, deps.svc, "stu-1", "math", 1, 80)
	upsert(t, deps.svc, "stu-1", "math", 2, 60)
	upsert(t, deps.svc, "stu-1", "history", 1, 100)
	upsert(t, deps.svc, "stu-2", "math", 1, 40)

	avg, err := deps.svc.StudentAverage(ctx, "stu-1")
	assert.NoError(t, err)
	assert.True(t, avg.OK)
	assert.Equal(t, 80.0, avg.Value)

	avg, err = deps.svc.SubjectAverage(ctx, "math")
	assert.NoError(t, err)
	assert.True(t, avg.OK)
	assert.Equal(t, 60.0, avg.Value)

	// no grades reads as "no data", not 0
	avg, err = deps.svc.StudentAverage(ctx, "stu-9")
	assert.NoError(t, err)
	assert.False(t, avg.OK)
}

func TestService_ReportCard(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	sec, err := deps.schoolSvc.CreateSection(ctx, school.NewClassSection{Name: "3A"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	math, err := deps.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	history, err := deps.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "History"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	stu, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", SectionID: sec.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	upsert(t, deps.svc, stu.ID, math.ID, 1, 65)
	upsert(t, deps.svc, stu.ID, math.ID, 2, 75)
	upsert(t, deps.svc, stu.ID, history.ID, 1, 90)

	// attendance in bimester 1 months plus one outside
	for _, rc := range []attendance.RollCall{
		{SectionID: sec.ID, Date: "2026-02-10", Entries: map[string]string{stu.ID: "P"}},
		{SectionID: sec.ID, Date: "2026-02-11", Entries: map[string]string{stu.ID: "F"}},
		{SectionID: sec.ID, Date: "2026-10-05", Entries: map[string]string{stu.ID: "F"}},
	} {
		if err := deps.attSvc.RecordRollCall(ctx, rc, "staff-1"); err != nil {
			t.Fatalf("RecordRollCall() failed: %v", err)
		}
	}

	// full year
	card, err := deps.svc.ReportCard(ctx, stu.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "Ana Souza", card.StudentName)
	assert.Equal(t, "3A", card.SectionName)
	if assert.Len(t, card.Lines, 2) {
		// lines sorted by subject name
		assert.Equal(t, "History", card.Lines[0].Subject)
		assert.False(t, card.Lines[0].AtRisk)
		assert.Equal(t, "Mathematics", card.Lines[1].Subject)
		assert.Equal(t, 70.0, card.Lines[1].Average.Value)
		assert.False(t, card.Lines[1].AtRisk)
	}
	assert.Equal(t, 2, card.Absences)
	assert.True(t, card.PresenceOK)
	assert.Equal(t, 33.3, card.Presence)

	// bimester 1 only: one math grade, and only Jan-Mar attendance counts
	card, err = deps.svc.ReportCard(ctx, stu.ID, 1)
	assert.NoError(t, err)
	if assert.Len(t, card.Lines, 2) {
		assert.Equal(t, 65.0, card.Lines[1].Values[1])
		assert.True(t, card.Lines[1].AtRisk)
	}
	assert.Equal(t, 1, card.Absences)
	assert.Equal(t, 50.0, card.Presence)

	_, err = deps.svc.ReportCard(ctx, "nope", 0)
	assert.Equal(t, school.ErrNotFound, err)
}

func TestService_ReportCardDocument(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	math, err := deps.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	stu, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	upsert(t, deps.svc, stu.ID, math.ID, 1, 65)
	upsert(t, deps.svc, stu.ID, math.ID, 3, 80)

	doc, err := deps.svc.ReportCardDocument(ctx, stu.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "Report Card", doc.Title)
	assert.Equal(t, []string{"Subject", "B1", "B2", "B3", "B4", "Average", "Status"}, doc.Table.Header)
	if assert.Len(t, doc.Table.Rows, 1) {
		assert.Equal(t, []string{"Mathematics", "65.0", "-", "80.0", "-", "72.5", "ok"}, doc.Table.Rows[0])
	}

	doc, err = deps.svc.ReportCardDocument(ctx, stu.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Subject", "Grade", "Status"}, doc.Table.Header)
	if assert.Len(t, doc.Table.Rows, 1) {
		assert.Equal(t, []string{"Mathematics", "65.0", "at risk"}, doc.Table.Rows[0])
	}
}

func TestService_StudentPerformance(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	math, err := deps.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	stu, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	upsert(t, deps.svc, stu.ID, math.ID, 1, 60)
	upsert(t, deps.svc, stu.ID, math.ID, 2, 70)

	chart, err := deps.svc.StudentPerformance(ctx, stu.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Performance - Ana Souza", chart.Title)
	if assert.Len(t, chart.Labels, 1) {
		assert.Equal(t, "Mathematics", chart.Labels[0])
		assert.Equal(t, 65.0, chart.Values[0])
		assert.Equal(t, "red", chart.Colors[0]) // below the passing mark
	}

	// no grades still charts: empty series, no error
	empty, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Bruno Dias"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	chart, err = deps.svc.StudentPerformance(ctx, empty.ID)
	assert.NoError(t, err)
	assert.Empty(t, chart.Labels)
}

func TestService_SectionPerformance(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	sec, err := deps.schoolSvc.CreateSection(ctx, school.NewClassSection{Name: "3A"})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	ana, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Ana Souza", SectionID: sec.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	bruno, err := deps.schoolSvc.CreateStudent(ctx, school.NewStudent{Name: "Bruno Dias", SectionID: sec.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	upsert(t, deps.svc, ana.ID, "math", 1, 90)
	// bruno has no grades and is left off the chart

	chart, err := deps.svc.SectionPerformance(ctx, sec.ID)
	assert.NoError(t, err)
	if assert.Len(t, chart.Labels, 1) {
		assert.Equal(t, "Ana Souza", chart.Labels[0])
	}
	_ = bruno
}
