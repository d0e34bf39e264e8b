package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/gradebook"
)

type gradebookRepository struct {
	db core.DB
}

var _ gradebook.Repository = (*gradebookRepository)(nil) // interface compliance check

func NewGradebookRepository(db core.DB) *gradebookRepository {
	return &gradebookRepository{db: db}
}

const upsertGradeQuery = `
INSERT INTO grades (id, student_id, subject_id, period, value, observation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, subject_id, period) DO UPDATE
SET value = EXCLUDED.value, observation = EXCLUDED.observation, updated_at = EXCLUDED.updated_at
RETURNING id`

func (repo gradebookRepository) UpsertGrade(ctx context.Context, g gradebook.Grade) (gradebook.Grade, error) {
	row := repo.db.QueryRowxContext(ctx, upsertGradeQuery,
		uuid.New().String(), g.StudentID, g.SubjectID, g.Period, g.Value, g.Observation, g.CreatedAt, g.UpdatedAt)
	if err := row.Scan(&g.ID); err != nil {
		return gradebook.Grade{}, errors.Wrap(err, "upserting grade")
	}
	return g, nil
}

func (repo gradebookRepository) UpsertGrades(ctx context.Context, gs []gradebook.Grade) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, g := range gs {
			var id string
			row := tx.QueryRowxContext(ctx, upsertGradeQuery,
				uuid.New().String(), g.StudentID, g.SubjectID, g.Period, g.Value, g.Observation, g.CreatedAt, g.UpdatedAt)
			if err := row.Scan(&id); err != nil {
				return errors.Wrap(err, "upserting grade")
			}
		}
		return nil
	})
}

func (repo gradebookRepository) FilterGrades(ctx context.Context, filter gradebook.QueryFilter) ([]gradebook.Grade, error) {
	qb := psql.Select("*").From("grades").OrderBy("student_id", "subject_id", "period")
	if filter.StudentID != "" {
		qb = qb.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.SubjectID != "" {
		qb = qb.Where(sq.Eq{"subject_id": filter.SubjectID})
	}
	if filter.Period > 0 {
		qb = qb.Where(sq.Eq{"period": filter.Period})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building grade query")
	}

	grades := make([]gradebook.Grade, 0)
	if err = repo.db.SelectContext(ctx, &grades, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo gradebookRepository) DeleteGrade(ctx context.Context, id string) error {
	q, args, err := psql.Delete("grades").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building grade delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gradebook.ErrNotFound
	}
	return nil
}
