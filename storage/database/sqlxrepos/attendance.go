package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
)

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

const upsertRecordQuery = `
INSERT INTO attendance_records (id, date, section_id, student_id, status, recorded_by, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (date, section_id, student_id) DO UPDATE
SET status = EXCLUDED.status, recorded_by = EXCLUDED.recorded_by, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at`

func (repo attendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, rec := range recs {
			_, err := tx.ExecContext(ctx, upsertRecordQuery,
				uuid.New().String(), rec.Date, rec.SectionID, rec.StudentID, rec.Status,
				rec.RecordedBy, rec.Note, rec.CreatedAt, rec.UpdatedAt,
			)
			if err != nil {
				return errors.Wrap(err, "upserting attendance record")
			}
		}
		return nil
	})
}

func (repo attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	qb := psql.Select("*").From("attendance_records").OrderBy("date", "section_id", "student_id")
	if filter.SectionID != "" {
		qb = qb.Where(sq.Eq{"section_id": filter.SectionID})
	}
	if filter.StudentID != "" {
		qb = qb.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": filter.Status})
	}
	if !filter.DateFrom.IsZero() {
		qb = qb.Where(sq.GtOrEq{"date": filter.DateFrom})
	}
	if !filter.DateTo.IsZero() {
		qb = qb.Where(sq.LtOrEq{"date": filter.DateTo})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building attendance query")
	}

	recs := make([]attendance.Record, 0)
	if err = repo.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return recs, nil
}

func (repo attendanceRepository) DistinctSectionDates(ctx context.Context, sectionID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(DISTINCT date) FROM attendance_records WHERE section_id = $1`, sectionID)
	if err != nil {
		return 0, errors.Wrap(err, "counting section sessions")
	}
	return count, nil
}

func (repo attendanceRepository) DatesSummary(ctx context.Context) ([]attendance.DateSummary, error) {
	summaries := make([]attendance.DateSummary, 0)
	err := repo.db.SelectContext(ctx, &summaries, `
SELECT date, COUNT(DISTINCT section_id) AS sections, COUNT(*) AS records
FROM attendance_records
GROUP BY date
ORDER BY date DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying roll-call dates")
	}
	return summaries, nil
}
