package dummydb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

// upsert key, mirroring the production UNIQUE (date, section_id, student_id)
func recordKey(rec attendance.Record) string {
	return fmt.Sprintf("%s|%s|%s", rec.Date.Format("2006-01-02"), rec.SectionID, rec.StudentID)
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, recs []attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range recs {
		key := recordKey(rec)
		if existing, ok := repo.db.table[key]; ok {
			existing.Status = rec.Status
			existing.RecordedBy = rec.RecordedBy
			existing.Note = rec.Note
			existing.UpdatedAt = rec.UpdatedAt
			continue
		}
		rec := rec
		rec.ID = uuid.New().String()
		repo.db.table[key] = &rec
	}
	return nil
}

func (repo *attendanceRepository) FilterRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.table {
		if filter.SectionID != "" && rec.SectionID != filter.SectionID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if !filter.DateFrom.IsZero() && rec.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && rec.Date.After(filter.DateTo) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.Before(recs[j].Date)
		}
		if recs[i].SectionID != recs[j].SectionID {
			return recs[i].SectionID < recs[j].SectionID
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

func (repo *attendanceRepository) DistinctSectionDates(_ context.Context, sectionID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	dates := make(map[string]bool)
	for _, rec := range repo.db.table {
		if rec.SectionID == sectionID {
			dates[rec.Date.Format("2006-01-02")] = true
		}
	}
	return len(dates), nil
}

func (repo *attendanceRepository) DatesSummary(_ context.Context) ([]attendance.DateSummary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type agg struct {
		summary  attendance.DateSummary
		sections map[string]bool
	}
	byDate := make(map[string]*agg)
	for _, rec := range repo.db.table {
		key := rec.Date.Format("2006-01-02")
		a, ok := byDate[key]
		if !ok {
			a = &agg{summary: attendance.DateSummary{Date: rec.Date}, sections: make(map[string]bool)}
			byDate[key] = a
		}
		a.sections[rec.SectionID] = true
		a.summary.Records++
	}

	summaries := make([]attendance.DateSummary, 0, len(byDate))
	for _, a := range byDate {
		a.summary.Sections = len(a.sections)
		summaries = append(summaries, a.summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Date.After(summaries[j].Date) })
	return summaries, nil
}
