package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/inventory"
)

type inventoryRepository struct {
	db *inventoryTables
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *DB) inventory.Repository {
	return &inventoryRepository{db: db.inventory}
}

func (repo *inventoryRepository) CreateResource(_ context.Context, res inventory.Resource) (inventory.Resource, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	res.ID = uuid.New().String()
	repo.db.resources[res.ID] = &res
	return res, nil
}

func (repo *inventoryRepository) QueryAllResources(_ context.Context) ([]inventory.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	resources := make([]inventory.Resource, 0, len(repo.db.resources))
	for _, res := range repo.db.resources {
		resources = append(resources, *res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })
	return resources, nil
}

func (repo *inventoryRepository) GetResourceByID(_ context.Context, id string) (inventory.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return inventory.Resource{}, inventory.ErrResourceNotFound
}

func (repo *inventoryRepository) UpdateResource(_ context.Context, res inventory.Resource) (inventory.Resource, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.resources[res.ID]; !ok {
		return inventory.Resource{}, inventory.ErrResourceNotFound
	}
	repo.db.resources[res.ID] = &res
	return res, nil
}

func (repo *inventoryRepository) DeleteResource(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.resources[id]; !ok {
		return inventory.ErrResourceNotFound
	}
	delete(repo.db.resources, id)
	return nil
}

// the write lock is this package's transaction: the availability check and
// both row writes happen under it, like the production repo's BeginTxx.

func (repo *inventoryRepository) CreateLoan(_ context.Context, loan inventory.Loan) (inventory.Loan, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	res, ok := repo.db.resources[loan.ResourceID]
	if !ok {
		return inventory.Loan{}, inventory.ErrResourceNotFound
	}
	if loan.Quantity > res.Quantity {
		return inventory.Loan{}, inventory.ErrInsufficientStock
	}
	res.Quantity -= loan.Quantity
	res.UpdatedAt = time.Now().UTC()

	loan.ID = uuid.New().String()
	repo.db.loans[loan.ID] = &loan
	return loan, nil
}

func (repo *inventoryRepository) UpdateLoanQuantity(_ context.Context, loan inventory.Loan, newQty int, expectedReturn time.Time) (inventory.Loan, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.loans[loan.ID]
	if !ok {
		return inventory.Loan{}, inventory.ErrLoanNotFound
	}
	if stored.Returned {
		return inventory.Loan{}, inventory.ErrAlreadyReturned
	}
	res, ok := repo.db.resources[stored.ResourceID]
	if !ok {
		return inventory.Loan{}, inventory.ErrResourceNotFound
	}
	if newQty > res.Quantity+stored.Quantity {
		return inventory.Loan{}, inventory.ErrInsufficientStock
	}

	res.Quantity += stored.Quantity - newQty
	res.UpdatedAt = time.Now().UTC()
	stored.Quantity = newQty
	stored.ExpectedReturn = expectedReturn
	return *stored, nil
}

func (repo *inventoryRepository) MarkLoanReturned(_ context.Context, id string, at time.Time) (inventory.Loan, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	loan, ok := repo.db.loans[id]
	if !ok {
		return inventory.Loan{}, inventory.ErrLoanNotFound
	}
	if loan.Returned {
		return inventory.Loan{}, inventory.ErrAlreadyReturned
	}
	if res, ok := repo.db.resources[loan.ResourceID]; ok {
		res.Quantity += loan.Quantity
		res.UpdatedAt = at
	}
	loan.Returned = true
	loan.ReturnedAt.SetValid(at)
	return *loan, nil
}

func (repo *inventoryRepository) GetLoanByID(_ context.Context, id string) (inventory.Loan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if loan, ok := repo.db.loans[id]; ok {
		return *loan, nil
	}
	return inventory.Loan{}, inventory.ErrLoanNotFound
}

func (repo *inventoryRepository) FilterLoans(_ context.Context, filter inventory.QueryFilter, orderings ...core.DBOrdering) ([]inventory.Loan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	loans := make([]inventory.Loan, 0)
	for _, loan := range repo.db.loans {
		if filter.ResourceID != "" && loan.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Returned != nil && loan.Returned != *filter.Returned {
			continue
		}
		loans = append(loans, *loan)
	}
	if len(orderings) == 0 {
		sort.Slice(loans, func(i, j int) bool { return loans[i].CheckedOutAt.After(loans[j].CheckedOutAt) })
		return loans, nil
	}
	sort.Slice(loans, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := &loans[i], &loans[j]
			if !ord.Ascending {
				a, b = b, a
			}
			switch ord.Field {
			case "quantity":
				if a.Quantity != b.Quantity {
					return a.Quantity < b.Quantity
				}
			case "expected_return":
				if !a.ExpectedReturn.Equal(b.ExpectedReturn) {
					return a.ExpectedReturn.Before(b.ExpectedReturn)
				}
			default: // checked_out_at
				if !a.CheckedOutAt.Equal(b.CheckedOutAt) {
					return a.CheckedOutAt.Before(b.CheckedOutAt)
				}
			}
		}
		return false
	})
	return loans, nil
}
