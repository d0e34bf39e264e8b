package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core/discipline"
)

type disciplineRepository struct {
	db *disciplineTables
}

var _ discipline.Repository = (*disciplineRepository)(nil) // interface compliance check

func NewDisciplineRepository(db *DB) discipline.Repository {
	return &disciplineRepository{db: db.discipline}
}

func (repo *disciplineRepository) CreateSuspension(_ context.Context, sus discipline.Suspension) (discipline.Suspension, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sus.ID = uuid.New().String()
	repo.db.suspensions[sus.ID] = &sus
	return sus, nil
}

func (repo *disciplineRepository) GetSuspensionByID(_ context.Context, id string) (discipline.Suspension, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sus, ok := repo.db.suspensions[id]; ok {
		return *sus, nil
	}
	return discipline.Suspension{}, discipline.ErrSuspensionNotFound
}

func (repo *disciplineRepository) FilterSuspensions(_ context.Context, filter discipline.SuspensionFilter) ([]discipline.Suspension, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	suspensions := make([]discipline.Suspension, 0)
	for _, sus := range repo.db.suspensions {
		if filter.SectionID != "" && sus.SectionID != filter.SectionID {
			continue
		}
		if filter.ActiveOn.Valid && !sus.ActiveOn(filter.ActiveOn.Time) {
			continue
		}
		suspensions = append(suspensions, *sus)
	}
	sort.Slice(suspensions, func(i, j int) bool { return suspensions[i].StartDate.After(suspensions[j].StartDate) })
	return suspensions, nil
}

func (repo *disciplineRepository) DeleteSuspension(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.suspensions[id]; !ok {
		return discipline.ErrSuspensionNotFound
	}
	delete(repo.db.suspensions, id)
	return nil
}

func (repo *disciplineRepository) CreateWarning(_ context.Context, wrn discipline.Warning) (discipline.Warning, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	wrn.ID = uuid.New().String()
	repo.db.warnings[wrn.ID] = &wrn
	return wrn, nil
}

func (repo *disciplineRepository) GetWarningByID(_ context.Context, id string) (discipline.Warning, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if wrn, ok := repo.db.warnings[id]; ok {
		return *wrn, nil
	}
	return discipline.Warning{}, discipline.ErrWarningNotFound
}

func (repo *disciplineRepository) QueryWarnings(_ context.Context, studentID string) ([]discipline.Warning, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	warnings := make([]discipline.Warning, 0)
	for _, wrn := range repo.db.warnings {
		if studentID != "" && wrn.StudentID != studentID {
			continue
		}
		warnings = append(warnings, *wrn)
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Date.After(warnings[j].Date) })
	return warnings, nil
}

func (repo *disciplineRepository) DeleteWarning(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.warnings[id]; !ok {
		return discipline.ErrWarningNotFound
	}
	delete(repo.db.warnings, id)
	return nil
}
