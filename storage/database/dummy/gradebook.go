package dummydb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core/gradebook"
)

type gradebookRepository struct {
	db *gradeTable
}

var _ gradebook.Repository = (*gradebookRepository)(nil) // interface compliance check

func NewGradebookRepository(db *DB) gradebook.Repository {
	return &gradebookRepository{db: db.gradebook}
}

// upsert key, mirroring the production UNIQUE (student_id, subject_id, period)
func gradeKey(g gradebook.Grade) string {
	return fmt.Sprintf("%s|%s|%d", g.StudentID, g.SubjectID, g.Period)
}

func (repo *gradebookRepository) upsert(g gradebook.Grade) gradebook.Grade {
	key := gradeKey(g)
	if existing, ok := repo.db.table[key]; ok {
		existing.Value = g.Value
		existing.Observation = g.Observation
		existing.UpdatedAt = g.UpdatedAt
		return *existing
	}
	g.ID = uuid.New().String()
	repo.db.table[key] = &g
	return g
}

func (repo *gradebookRepository) UpsertGrade(_ context.Context, g gradebook.Grade) (gradebook.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.upsert(g), nil
}

func (repo *gradebookRepository) UpsertGrades(_ context.Context, gs []gradebook.Grade) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, g := range gs {
		repo.upsert(g)
	}
	return nil
}

func (repo *gradebookRepository) FilterGrades(_ context.Context, filter gradebook.QueryFilter) ([]gradebook.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]gradebook.Grade, 0)
	for _, g := range repo.db.table {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && g.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Period > 0 && g.Period != filter.Period {
			continue
		}
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return gradeKey(grades[i]) < gradeKey(grades[j]) })
	return grades, nil
}

func (repo *gradebookRepository) DeleteGrade(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for key, g := range repo.db.table {
		if g.ID == id {
			delete(repo.db.table, key)
			return nil
		}
	}
	return gradebook.ErrNotFound
}
