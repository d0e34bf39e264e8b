package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/inventory"
)

type inventoryRepository struct {
	db core.DB
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db core.DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

// --------------------------------------------------------------- resources

func (repo inventoryRepository) CreateResource(ctx context.Context, res inventory.Resource) (inventory.Resource, error) {
	res.ID = uuid.New().String()
	q, args, err := psql.Insert("resources").
		Columns("id", "name", "type", "quantity", "location", "created_at", "updated_at").
		Values(res.ID, res.Name, res.Type, res.Quantity, res.Location, res.CreatedAt, res.UpdatedAt).
		ToSql()
	if err != nil {
		return inventory.Resource{}, errors.Wrap(err, "building resource insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return inventory.Resource{}, errors.Wrap(err, "inserting resource")
	}
	return res, nil
}

func (repo inventoryRepository) QueryAllResources(ctx context.Context) ([]inventory.Resource, error) {
	q, args, err := psql.Select("*").From("resources").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building resource query")
	}
	resources := make([]inventory.Resource, 0)
	if err = repo.db.SelectContext(ctx, &resources, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	return resources, nil
}

func (repo inventoryRepository) GetResourceByID(ctx context.Context, id string) (inventory.Resource, error) {
	q, args, err := psql.Select("*").From("resources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return inventory.Resource{}, errors.Wrap(err, "building resource query")
	}
	var res inventory.Resource
	if err = repo.db.GetContext(ctx, &res, q, args...); err != nil {
		return inventory.Resource{}, trapNoRowsErr(err, inventory.ErrResourceNotFound, "getting resource")
	}
	return res, nil
}

func (repo inventoryRepository) UpdateResource(ctx context.Context, res inventory.Resource) (inventory.Resource, error) {
	q, args, err := psql.Update("resources").
		Set("name", res.Name).
		Set("type", res.Type).
		Set("quantity", res.Quantity).
		Set("location", res.Location).
		Set("updated_at", res.UpdatedAt).
		Where(sq.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return inventory.Resource{}, errors.Wrap(err, "building resource update")
	}
	result, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return inventory.Resource{}, errors.Wrap(err, "updating resource")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return inventory.Resource{}, inventory.ErrResourceNotFound
	}
	return res, nil
}

func (repo inventoryRepository) DeleteResource(ctx context.Context, id string) error {
	q, args, err := psql.Delete("resources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building resource delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return inventory.ErrResourceNotFound
	}
	return nil
}

// ------------------------------------------------------------------- loans

// adjustQuantity applies a counter delta inside tx; the WHERE guard keeps
// the counter non-negative and serializes concurrent movements on the row.
func (repo inventoryRepository) adjustQuantity(ctx context.Context, tx *sqlx.Tx, resourceID string, delta int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE resources SET quantity = quantity + $2, updated_at = $3 WHERE id = $1 AND quantity + $2 >= 0`,
		resourceID, delta, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "adjusting resource quantity")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "adjusting resource quantity")
	}
	if n == 0 {
		var exists bool
		if err = tx.GetContext(ctx, &exists, `SELECT true FROM resources WHERE id = $1`, resourceID); err != nil {
			return trapNoRowsErr(err, inventory.ErrResourceNotFound, "checking resource")
		}
		return inventory.ErrInsufficientStock
	}
	return nil
}

func (repo inventoryRepository) CreateLoan(ctx context.Context, loan inventory.Loan) (inventory.Loan, error) {
	loan.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := repo.adjustQuantity(ctx, tx, loan.ResourceID, -loan.Quantity); err != nil {
			return err
		}
		q, args, err := psql.Insert("loans").
			Columns("id", "resource_id", "quantity", "student_id", "teacher_id", "beneficiary_name",
				"checked_out_at", "expected_return", "returned", "returned_at").
			Values(loan.ID, loan.ResourceID, loan.Quantity, loan.StudentID, loan.TeacherID, loan.BeneficiaryName,
				loan.CheckedOutAt, loan.ExpectedReturn, loan.Returned, loan.ReturnedAt).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building loan insert")
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrap(err, "inserting loan")
		}
		return nil
	})
	if err != nil {
		return inventory.Loan{}, err
	}
	return loan, nil
}

func (repo inventoryRepository) UpdateLoanQuantity(ctx context.Context, loan inventory.Loan, newQty int, expectedReturn time.Time) (inventory.Loan, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		// the loan's current reservation goes back to the pool, the new one
		// comes out; net delta in one guarded statement
		if err := repo.adjustQuantity(ctx, tx, loan.ResourceID, loan.Quantity-newQty); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE loans SET quantity = $2, expected_return = $3 WHERE id = $1 AND NOT returned`,
			loan.ID, newQty, expectedReturn,
		)
		if err != nil {
			return errors.Wrap(err, "updating loan")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "updating loan")
		}
		if n == 0 {
			return repo.loanGuardErr(ctx, tx, loan.ID)
		}
		return nil
	})
	if err != nil {
		return inventory.Loan{}, err
	}
	loan.Quantity = newQty
	loan.ExpectedReturn = expectedReturn
	return loan, nil
}

func (repo inventoryRepository) MarkLoanReturned(ctx context.Context, id string, at time.Time) (inventory.Loan, error) {
	var loan inventory.Loan
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		// the guard makes the return idempotent-hostile on purpose: the
		// second attempt matches no row and no second increment happens
		row := tx.QueryRowxContext(ctx,
			`UPDATE loans SET returned = true, returned_at = $2 WHERE id = $1 AND NOT returned RETURNING *`,
			id, at,
		)
		if err := row.StructScan(&loan); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return repo.loanGuardErr(ctx, tx, id)
			}
			return errors.Wrap(err, "returning loan")
		}
		return repo.adjustQuantity(ctx, tx, loan.ResourceID, loan.Quantity)
	})
	if err != nil {
		return inventory.Loan{}, err
	}
	return loan, nil
}

// loanGuardErr tells a missing loan apart from an already-returned one
// after a guarded update matched no row.
func (repo inventoryRepository) loanGuardErr(ctx context.Context, tx *sqlx.Tx, id string) error {
	var returned bool
	if err := tx.GetContext(ctx, &returned, `SELECT returned FROM loans WHERE id = $1`, id); err != nil {
		return trapNoRowsErr(err, inventory.ErrLoanNotFound, "checking loan")
	}
	if returned {
		return inventory.ErrAlreadyReturned
	}
	return errors.New("loan update matched no row")
}

func (repo inventoryRepository) GetLoanByID(ctx context.Context, id string) (inventory.Loan, error) {
	q, args, err := psql.Select("*").From("loans").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return inventory.Loan{}, errors.Wrap(err, "building loan query")
	}
	var loan inventory.Loan
	if err = repo.db.GetContext(ctx, &loan, q, args...); err != nil {
		return inventory.Loan{}, trapNoRowsErr(err, inventory.ErrLoanNotFound, "getting loan")
	}
	return loan, nil
}

func (repo inventoryRepository) FilterLoans(ctx context.Context, filter inventory.QueryFilter, orderings ...core.DBOrdering) ([]inventory.Loan, error) {
	qb := psql.Select("*").From("loans")
	if len(orderings) == 0 {
		qb = qb.OrderBy("checked_out_at DESC")
	}
	for _, ord := range orderings {
		qb = qb.OrderBy(ord.String())
	}
	if filter.ResourceID != "" {
		qb = qb.Where(sq.Eq{"resource_id": filter.ResourceID})
	}
	if filter.Returned != nil {
		qb = qb.Where(sq.Eq{"returned": *filter.Returned})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building loan query")
	}

	loans := make([]inventory.Loan, 0)
	if err = repo.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying loans")
	}
	return loans, nil
}
