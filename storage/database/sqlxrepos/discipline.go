package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/discipline"
)

type disciplineRepository struct {
	db core.DB
}

var _ discipline.Repository = (*disciplineRepository)(nil) // interface compliance check

func NewDisciplineRepository(db core.DB) *disciplineRepository {
	return &disciplineRepository{db: db}
}

func (repo disciplineRepository) CreateSuspension(ctx context.Context, sus discipline.Suspension) (discipline.Suspension, error) {
	sus.ID = uuid.New().String()
	q, args, err := psql.Insert("suspensions").
		Columns("id", "student_id", "section_id", "start_date", "end_date", "reason", "created_by", "created_at").
		Values(sus.ID, sus.StudentID, sus.SectionID, sus.StartDate, sus.EndDate, sus.Reason, sus.CreatedBy, sus.CreatedAt).
		ToSql()
	if err != nil {
		return discipline.Suspension{}, errors.Wrap(err, "building suspension insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return discipline.Suspension{}, errors.Wrap(err, "inserting suspension")
	}
	return sus, nil
}

func (repo disciplineRepository) GetSuspensionByID(ctx context.Context, id string) (discipline.Suspension, error) {
	q, args, err := psql.Select("*").From("suspensions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return discipline.Suspension{}, errors.Wrap(err, "building suspension query")
	}
	var sus discipline.Suspension
	if err = repo.db.GetContext(ctx, &sus, q, args...); err != nil {
		return discipline.Suspension{}, trapNoRowsErr(err, discipline.ErrSuspensionNotFound, "getting suspension")
	}
	return sus, nil
}

func (repo disciplineRepository) FilterSuspensions(ctx context.Context, filter discipline.SuspensionFilter) ([]discipline.Suspension, error) {
	qb := psql.Select("*").From("suspensions").OrderBy("start_date DESC")
	if filter.SectionID != "" {
		qb = qb.Where(sq.Eq{"section_id": filter.SectionID})
	}
	if filter.ActiveOn.Valid {
		qb = qb.Where(
			sq.And{
				sq.LtOrEq{"start_date": filter.ActiveOn.Time},
				sq.Or{sq.Eq{"end_date": nil}, sq.GtOrEq{"end_date": filter.ActiveOn.Time}},
			},
		)
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building suspension query")
	}

	suspensions := make([]discipline.Suspension, 0)
	if err = repo.db.SelectContext(ctx, &suspensions, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying suspensions")
	}
	return suspensions, nil
}

func (repo disciplineRepository) DeleteSuspension(ctx context.Context, id string) error {
	q, args, err := psql.Delete("suspensions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building suspension delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting suspension")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return discipline.ErrSuspensionNotFound
	}
	return nil
}

func (repo disciplineRepository) CreateWarning(ctx context.Context, wrn discipline.Warning) (discipline.Warning, error) {
	wrn.ID = uuid.New().String()
	q, args, err := psql.Insert("warnings").
		Columns("id", "student_id", "date", "reason", "created_at").
		Values(wrn.ID, wrn.StudentID, wrn.Date, wrn.Reason, wrn.CreatedAt).
		ToSql()
	if err != nil {
		return discipline.Warning{}, errors.Wrap(err, "building warning insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return discipline.Warning{}, errors.Wrap(err, "inserting warning")
	}
	return wrn, nil
}

func (repo disciplineRepository) GetWarningByID(ctx context.Context, id string) (discipline.Warning, error) {
	q, args, err := psql.Select("*").From("warnings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return discipline.Warning{}, errors.Wrap(err, "building warning query")
	}
	var wrn discipline.Warning
	if err = repo.db.GetContext(ctx, &wrn, q, args...); err != nil {
		return discipline.Warning{}, trapNoRowsErr(err, discipline.ErrWarningNotFound, "getting warning")
	}
	return wrn, nil
}

func (repo disciplineRepository) QueryWarnings(ctx context.Context, studentID string) ([]discipline.Warning, error) {
	qb := psql.Select("*").From("warnings").OrderBy("date DESC")
	if studentID != "" {
		qb = qb.Where(sq.Eq{"student_id": studentID})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building warning query")
	}

	warnings := make([]discipline.Warning, 0)
	if err = repo.db.SelectContext(ctx, &warnings, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying warnings")
	}
	return warnings, nil
}

func (repo disciplineRepository) DeleteWarning(ctx context.Context, id string) error {
	q, args, err := psql.Delete("warnings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building warning delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting warning")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return discipline.ErrWarningNotFound
	}
	return nil
}
