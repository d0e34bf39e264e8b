package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

func setup(t *testing.T) *attendance.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return attendance.NewService(dummydb.NewAttendanceRepository(db))
}

func rollCall(t *testing.T, svc *attendance.Service, sectionID, date string, entries map[string]string) {
	err := svc.RecordRollCall(context.Background(), attendance.RollCall{
		SectionID: sectionID,
		Date:      date,
		Entries:   entries,
	}, "staff-1")
	if err != nil {
		t.Fatalf("RecordRollCall() failed: %v", err)
	}
}

func mustDate(t *testing.T, value string) time.Time {
	date, err := core.ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", value, err)
	}
	return date
}

func TestService_RecordRollCall_InvalidStatus(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// one bad status fails the whole submission; nothing is written
	err := svc.RecordRollCall(ctx, attendance.RollCall{
		SectionID: "sec-1",
		Date:      "2026-03-02",
		Entries:   map[string]string{"stu-1": "P", "stu-2": "X"},
	}, "staff-1")
	assert.Error(t, err)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	pct, err := svc.Percentage(ctx, "stu-1", "sec-1")
	assert.NoError(t, err)
	assert.False(t, pct.OK)
}

func TestService_RecordRollCall_Overwrite(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	date := mustDate(t, "2026-03-02")

	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P", "stu-2": "F"})

	sum, err := svc.RollCallSummary(ctx, "sec-1", date)
	assert.NoError(t, err)
	assert.Equal(t, attendance.Summary{Present: 1, Absent: 1, Total: 2}, sum)

	// resubmitting the same form changes nothing
	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P", "stu-2": "F"})
	sum, _ = svc.RollCallSummary(ctx, "sec-1", date)
	assert.Equal(t, attendance.Summary{Present: 1, Absent: 1, Total: 2}, sum)

	// resubmitting with a correction overwrites the record
	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P", "stu-2": "P"})
	sum, _ = svc.RollCallSummary(ctx, "sec-1", date)
	assert.Equal(t, attendance.Summary{Present: 2, Absent: 0, Total: 2}, sum)
}

func TestService_Percentage(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P"})
	rollCall(t, svc, "sec-1", "2026-03-03", map[string]string{"stu-1": "F"})
	rollCall(t, svc, "sec-1", "2026-03-04", map[string]string{"stu-1": "P"})

	pct, err := svc.Percentage(ctx, "stu-1", "sec-1")
	assert.NoError(t, err)
	assert.True(t, pct.OK)
	assert.Equal(t, 66.7, pct.Value)

	// no data reads as "no data", not 0%
	pct, err = svc.Percentage(ctx, "stu-9", "sec-1")
	assert.NoError(t, err)
	assert.False(t, pct.OK)
	assert.Equal(t, 0.0, pct.Value)
}

func TestService_MonthlyPercentage(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rollCall(t, svc, "sec-1", "2026-02-10", map[string]string{"stu-1": "P"})
	rollCall(t, svc, "sec-1", "2026-02-11", map[string]string{"stu-1": "F"})
	rollCall(t, svc, "sec-1", "2026-10-05", map[string]string{"stu-1": "F"})

	present, absent, pct, err := svc.MonthlyPercentage(ctx, "stu-1", []time.Month{time.January, time.February, time.March})
	assert.NoError(t, err)
	assert.Equal(t, 1, present)
	assert.Equal(t, 1, absent)
	assert.True(t, pct.OK)
	assert.Equal(t, 50.0, pct.Value)

	_, _, pct, err = svc.MonthlyPercentage(ctx, "stu-1", []time.Month{time.June})
	assert.NoError(t, err)
	assert.False(t, pct.OK)
}

func TestService_OverLimit(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	// four sessions; stu-1 misses two (50%), stu-2 misses one (25%)
	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "F", "stu-2": "P"})
	rollCall(t, svc, "sec-1", "2026-03-03", map[string]string{"stu-1": "F", "stu-2": "F"})
	rollCall(t, svc, "sec-1", "2026-03-04", map[string]string{"stu-1": "P", "stu-2": "P"})
	rollCall(t, svc, "sec-1", "2026-03-05", map[string]string{"stu-1": "P", "stu-2": "P"})

	flagged, err := svc.OverLimit(ctx, 0)
	assert.NoError(t, err)
	// exactly 25% is not over the limit
	if assert.Len(t, flagged, 1) {
		assert.Equal(t, "stu-1", flagged[0].StudentID)
		assert.Equal(t, 2, flagged[0].Absences)
		assert.Equal(t, 4, flagged[0].Sessions)
		assert.Equal(t, 50.0, flagged[0].Percentage)
	}

	flagged, err = svc.OverLimit(ctx, 0.2)
	assert.NoError(t, err)
	assert.Len(t, flagged, 2)
}

func TestService_SectionSessions(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P", "stu-2": "P"})
	rollCall(t, svc, "sec-1", "2026-03-03", map[string]string{"stu-1": "P"})
	rollCall(t, svc, "sec-2", "2026-03-03", map[string]string{"stu-3": "P"})

	sessions, err := svc.SectionSessions(ctx, "sec-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, sessions)

	sessions, err = svc.SectionSessions(ctx, "sec-2")
	assert.NoError(t, err)
	assert.Equal(t, 1, sessions)
}

func TestService_DatesSummary(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "P", "stu-2": "F"})
	rollCall(t, svc, "sec-2", "2026-03-02", map[string]string{"stu-3": "P"})
	rollCall(t, svc, "sec-1", "2026-03-03", map[string]string{"stu-1": "P"})

	summaries, err := svc.DatesSummary(ctx)
	assert.NoError(t, err)
	if assert.Len(t, summaries, 2) {
		assert.Equal(t, mustDate(t, "2026-03-03"), summaries[0].Date) // newest first
		assert.Equal(t, 1, summaries[0].Sections)
		assert.Equal(t, 1, summaries[0].Records)
		assert.Equal(t, mustDate(t, "2026-03-02"), summaries[1].Date)
		assert.Equal(t, 2, summaries[1].Sections)
		assert.Equal(t, 3, summaries[1].Records)
	}
}

func TestService_StudentRecords(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rollCall(t, svc, "sec-1", "2026-03-02", map[string]string{"stu-1": "F"})
	rollCall(t, svc, "sec-1", "2026-03-03", map[string]string{"stu-1": "P"})
	rollCall(t, svc, "sec-2", "2026-03-03", map[string]string{"stu-1": "F"})

	recs, err := svc.StudentRecords(ctx, "stu-1", "", attendance.StatusAbsent)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = svc.StudentRecords(ctx, "stu-1", "sec-1", attendance.StatusAbsent)
	assert.NoError(t, err)
	if assert.Len(t, recs, 1) {
		assert.Equal(t, "sec-1", recs[0].SectionID)
		assert.Equal(t, "staff-1", recs[0].RecordedBy.String)
	}
}
