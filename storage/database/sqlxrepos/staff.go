package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/staff"
)

var staffColumns = []string{"id", "name", "username", "email", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

// staffRow mirrors the staff table; last_login is nullable in DDL while the
// domain model carries a zero time.
type staffRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    sql.NullTime `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r staffRow) domain() staff.Staff {
	return staff.Staff{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

func staffValues(stf staff.Staff) []interface{} {
	return []interface{}{
		stf.ID, stf.Name, stf.Username, stf.Email, stf.IsActive, stf.PasswordHash,
		stf.CreatedAt, stf.UpdatedAt, sql.NullTime{Time: stf.LastLogin, Valid: !stf.LastLogin.IsZero()},
	}
}

type staffRepository struct {
	db core.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db core.DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo staffRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...staff.Staff) error {
	or := sq.Or{}
	if username != "" {
		or = append(or, sq.Eq{"username": username})
	}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	qb := psql.Select("username", "email").From("staff").Where(or)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, stf := range excluded {
			ids = append(ids, stf.ID)
		}
		qb = qb.Where(sq.NotEq{"id": ids})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var rows []staffRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return errors.Wrap(err, "checking staff uniqueness")
	}
	for _, row := range rows {
		if username != "" && row.Username == username {
			return staff.ErrUsernameExists
		}
		if email != "" && row.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (repo staffRepository) CreateStaff(ctx context.Context, stf staff.Staff) (staff.Staff, error) {
	stf.ID = uuid.New().String()
	q, args, err := psql.Insert("staff").Columns(staffColumns...).Values(staffValues(stf)...).ToSql()
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "building staff insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return stf, nil
}

func (repo staffRepository) QueryAllStaff(ctx context.Context) ([]staff.Staff, error) {
	q, args, err := psql.Select(staffColumns...).From("staff").OrderBy("created_at").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building staff query")
	}
	var rows []staffRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}

	all := make([]staff.Staff, 0, len(rows))
	for _, row := range rows {
		all = append(all, row.domain())
	}
	return all, nil
}

func (repo staffRepository) GetStaffByID(ctx context.Context, id string) (staff.Staff, error) {
	return repo.getStaff(ctx, sq.Eq{"id": id})
}

func (repo staffRepository) GetStaffByUsernameOrEmail(ctx context.Context, username string) (staff.Staff, error) {
	return repo.getStaff(ctx, sq.Or{sq.Eq{"username": username}, sq.Eq{"email": username}})
}

func (repo staffRepository) getStaff(ctx context.Context, pred interface{}) (staff.Staff, error) {
	q, args, err := psql.Select(staffColumns...).From("staff").Where(pred).ToSql()
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "building staff query")
	}
	var row staffRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return staff.Staff{}, trapNoRowsErr(err, staff.ErrNotFound, "getting staff")
	}
	return row.domain(), nil
}

func (repo staffRepository) UpdateStaff(ctx context.Context, stf staff.Staff) (staff.Staff, error) {
	q, args, err := psql.Update("staff").
		Set("name", stf.Name).
		Set("username", stf.Username).
		Set("email", stf.Email).
		Set("is_active", stf.IsActive).
		Set("password_hash", stf.PasswordHash).
		Set("updated_at", stf.UpdatedAt).
		Set("last_login", sql.NullTime{Time: stf.LastLogin, Valid: !stf.LastLogin.IsZero()}).
		Where(sq.Eq{"id": stf.ID}).
		ToSql()
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "building staff update")
	}

	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staff.Staff{}, staff.ErrNotFound
	}
	return stf, nil
}

func (repo staffRepository) UpdateOrCreateStaff(ctx context.Context, stf staff.Staff) (staff.Staff, error) {
	match := stf.Username
	if match == "" {
		match = stf.Email
	}
	existing, err := repo.GetStaffByUsernameOrEmail(ctx, match)
	switch errors.Cause(err) {
	case nil:
		stf.ID = existing.ID
		stf.CreatedAt = existing.CreatedAt
		return repo.UpdateStaff(ctx, stf)
	case staff.ErrNotFound:
		return repo.CreateStaff(ctx, stf)
	default:
		return staff.Staff{}, err
	}
}
