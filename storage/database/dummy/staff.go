package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excluded ...staff.Staff) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	isExcluded := func(id string) bool {
		for _, stf := range excluded {
			if stf.ID == id {
				return true
			}
		}
		return false
	}
	for _, stf := range repo.db.table {
		if isExcluded(stf.ID) {
			continue
		}
		if username != "" && stf.Username == username {
			return staff.ErrUsernameExists
		}
		if email != "" && stf.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (repo *staffRepository) CreateStaff(_ context.Context, stf staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stf.ID = uuid.New().String()
	repo.db.table[stf.ID] = &stf
	return stf, nil
}

func (repo *staffRepository) QueryAllStaff(_ context.Context) ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all := make([]staff.Staff, 0, len(repo.db.table))
	for _, stf := range repo.db.table {
		all = append(all, *stf)
	}
	return all, nil
}

func (repo *staffRepository) GetStaffByID(_ context.Context, id string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stf, ok := repo.db.table[id]; ok {
		return *stf, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetStaffByUsernameOrEmail(_ context.Context, username string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stf := range repo.db.table {
		if (stf.Username != "" && stf.Username == username) || (stf.Email != "" && stf.Email == username) {
			return *stf, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateStaff(_ context.Context, stf staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[stf.ID]; !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	repo.db.table[stf.ID] = &stf
	return stf, nil
}

func (repo *staffRepository) UpdateOrCreateStaff(ctx context.Context, stf staff.Staff) (staff.Staff, error) {
	match := stf.Username
	if match == "" {
		match = stf.Email
	}
	existing, err := repo.GetStaffByUsernameOrEmail(ctx, match)
	if err == nil {
		stf.ID = existing.ID
		stf.CreatedAt = existing.CreatedAt
		return repo.UpdateStaff(ctx, stf)
	}
	return repo.CreateStaff(ctx, stf)
}
