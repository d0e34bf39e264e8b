package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var (
	ErrNotFound = errors.New("attendance record not found")
	// ErrInvalidStatus rejects roll-call entries outside {P, F}; the whole
	// batch fails and nothing is written.
	ErrInvalidStatus = errors.New("only 'P' (present) and 'F' (absent) statuses are accepted")
)

// DefaultAbsenceLimit is the absence rate above which a student is flagged.
const DefaultAbsenceLimit = 0.25

type (
	Repository interface {
		// UpsertRecords writes one record per (date, section, student) key
		// in a single all-or-nothing transaction; resubmission overwrites.
		UpsertRecords(ctx context.Context, recs []Record) error
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		// DistinctSectionDates counts distinct dates with any record for the
		// section: a date with no recorded students does not count a session.
		DistinctSectionDates(ctx context.Context, sectionID string) (int, error)
		DatesSummary(ctx context.Context) ([]DateSummary, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordRollCall validates the whole submission, then upserts one record per
// student. Re-submitting the same payload is a no-op in effect; re-submitting
// with changed statuses overwrites.
func (s *Service) RecordRollCall(ctx context.Context, rc RollCall, actorID string) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	date, err := core.ParseDate(rc.Date)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	recs := make([]Record, 0, len(rc.Entries))
	for studentID, status := range rc.Entries {
		rec := Record{
			Date:      date,
			SectionID: rc.SectionID,
			StudentID: studentID,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if actorID != "" {
			rec.RecordedBy.SetValid(actorID)
		}
		recs = append(recs, rec)
	}
	return errors.Wrap(s.repo.UpsertRecords(ctx, recs), "recording roll call")
}

// RollCallSummary counts present/absent records for a section on a date.
func (s *Service) RollCallSummary(ctx context.Context, sectionID string, date time.Time) (Summary, error) {
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{SectionID: sectionID, DateFrom: date, DateTo: date})
	if err != nil {
		return Summary{}, err
	}
	return summarize(recs), nil
}

// SectionDateDetail returns the records for one section on one date plus
// their summary, ordered as stored.
func (s *Service) SectionDateDetail(ctx context.Context, sectionID string, date time.Time) ([]Record, Summary, error) {
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{SectionID: sectionID, DateFrom: date, DateTo: date})
	if err != nil {
		return nil, Summary{}, err
	}
	return recs, summarize(recs), nil
}

// Percentage computes a student's presence rate in a section, rounded to one
// decimal. OK is false when the student has no records (no data, not 0%).
func (s *Service) Percentage(ctx context.Context, studentID, sectionID string) (Percentage, error) {
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID, SectionID: sectionID})
	if err != nil {
		return Percentage{}, err
	}
	return presenceRate(recs), nil
}

// MonthlyPercentage restricts the rate to records falling in the given
// months (the grading-period -> months mapping lives in the grade book).
func (s *Service) MonthlyPercentage(ctx context.Context, studentID string, months []time.Month) (present, absent int, pct Percentage, err error) {
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return 0, 0, Percentage{}, err
	}
	inMonths := recs[:0]
	for _, rec := range recs {
		for _, m := range months {
			if rec.Date.Month() == m {
				inMonths = append(inMonths, rec)
				break
			}
		}
	}
	for _, rec := range inMonths {
		switch rec.Status {
		case StatusPresent:
			present++
		case StatusAbsent:
			absent++
		}
	}
	return present, absent, presenceRate(inMonths), nil
}

// AbsenceCount counts a student's absences, optionally within a section.
func (s *Service) AbsenceCount(ctx context.Context, studentID, sectionID string) (int, error) {
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID, SectionID: sectionID, Status: StatusAbsent})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// SectionSessions counts the distinct dates with any record for a section.
func (s *Service) SectionSessions(ctx context.Context, sectionID string) (int, error) {
	return s.repo.DistinctSectionDates(ctx, sectionID)
}

// OverLimit flags every (student, section) pair whose absence rate exceeds
// the threshold. The session total is the count of distinct dates with any
// record for the section, not enrollment days.
func (s *Service) OverLimit(ctx context.Context, threshold float64) ([]OverLimitStudent, error) {
	if threshold <= 0 {
		threshold = DefaultAbsenceLimit
	}
	recs, err := s.repo.FilterRecords(ctx, QueryFilter{})
	if err != nil {
		return nil, err
	}

	type key struct{ studentID, sectionID string }
	sessions := make(map[string]map[time.Time]bool) // sectionID -> distinct dates
	absences := make(map[key]int)
	for _, rec := range recs {
		dates, ok := sessions[rec.SectionID]
		if !ok {
			dates = make(map[time.Time]bool)
			sessions[rec.SectionID] = dates
		}
		dates[rec.Date] = true
		if rec.Status == StatusAbsent {
			absences[key{rec.StudentID, rec.SectionID}]++
		}
	}

	flagged := make([]OverLimitStudent, 0)
	for k, count := range absences {
		total := len(sessions[k.sectionID])
		if total == 0 {
			continue
		}
		if rate := float64(count) / float64(total); rate > threshold {
			flagged = append(flagged, OverLimitStudent{
				StudentID:  k.studentID,
				SectionID:  k.sectionID,
				Absences:   count,
				Sessions:   total,
				Percentage: round1(rate * 100),
			})
		}
	}
	return flagged, nil
}

// DatesSummary lists the distinct roll-call dates with per-date counts.
func (s *Service) DatesSummary(ctx context.Context) ([]DateSummary, error) {
	return s.repo.DatesSummary(ctx)
}

// StudentRecords lists a student's records, optionally narrowed to a section
// and/or status.
func (s *Service) StudentRecords(ctx context.Context, studentID, sectionID, status string) ([]Record, error) {
	return s.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID, SectionID: sectionID, Status: status})
}

func summarize(recs []Record) Summary {
	var sum Summary
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		}
	}
	sum.Total = sum.Present + sum.Absent
	return sum
}

func presenceRate(recs []Record) Percentage {
	var present, absent int
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			present++
		case StatusAbsent:
			absent++
		}
	}
	total := present + absent
	if total == 0 {
		return Percentage{}
	}
	return Percentage{Value: round1(float64(present) / float64(total) * 100), OK: true}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
