package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core/school"
)

type schoolRepository struct {
	db *schoolTables
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

// ---------------------------------------------------------------- students

func (repo *schoolRepository) CreateStudent(_ context.Context, stu school.Student) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu.ID = uuid.New().String()
	repo.db.students[stu.ID] = &stu
	return stu, nil
}

func (repo *schoolRepository) FilterStudents(_ context.Context, filter school.StudentFilter) ([]school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]school.Student, 0, len(repo.db.students))
	for _, stu := range repo.db.students {
		if filter.SectionID != "" && (!stu.SectionID.Valid || stu.SectionID.String != filter.SectionID) {
			continue
		}
		if filter.GuardianID != "" && (!stu.GuardianID.Valid || stu.GuardianID.String != filter.GuardianID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(stu.Name), strings.ToLower(filter.Search)) {
			continue
		}
		students = append(students, *stu)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *schoolRepository) GetStudentByID(_ context.Context, id string) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.db.students[id]; ok {
		return *stu, nil
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, stu school.Student) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[stu.ID]; !ok {
		return school.Student{}, school.ErrNotFound
	}
	repo.db.students[stu.ID] = &stu
	return stu, nil
}

func (repo *schoolRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.students, id)
	return nil
}

// --------------------------------------------------------------- guardians

func (repo *schoolRepository) CreateGuardian(_ context.Context, gdn school.Guardian) (school.Guardian, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	gdn.ID = uuid.New().String()
	repo.db.guardians[gdn.ID] = &gdn
	return gdn, nil
}

func (repo *schoolRepository) QueryAllGuardians(_ context.Context) ([]school.Guardian, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	guardians := make([]school.Guardian, 0, len(repo.db.guardians))
	for _, gdn := range repo.db.guardians {
		guardians = append(guardians, *gdn)
	}
	sort.Slice(guardians, func(i, j int) bool { return guardians[i].Name < guardians[j].Name })
	return guardians, nil
}

func (repo *schoolRepository) GetGuardianByID(_ context.Context, id string) (school.Guardian, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gdn, ok := repo.db.guardians[id]; ok {
		return *gdn, nil
	}
	return school.Guardian{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateGuardian(_ context.Context, gdn school.Guardian) (school.Guardian, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.guardians[gdn.ID]; !ok {
		return school.Guardian{}, school.ErrNotFound
	}
	repo.db.guardians[gdn.ID] = &gdn
	return gdn, nil
}

func (repo *schoolRepository) DeleteGuardian(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.guardians[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.guardians, id)
	return nil
}

// ---------------------------------------------------------------- teachers

func (repo *schoolRepository) CreateTeacher(_ context.Context, tch school.Teacher) (school.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tch.ID = uuid.New().String()
	repo.db.teachers[tch.ID] = &tch
	return tch, nil
}

func (repo *schoolRepository) QueryAllTeachers(_ context.Context) ([]school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.db.teachers))
	for _, tch := range repo.db.teachers {
		teachers = append(teachers, *tch)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })
	return teachers, nil
}

func (repo *schoolRepository) GetTeacherByID(_ context.Context, id string) (school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tch, ok := repo.db.teachers[id]; ok {
		return *tch, nil
	}
	return school.Teacher{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateTeacher(_ context.Context, tch school.Teacher) (school.Teacher, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teachers[tch.ID]; !ok {
		return school.Teacher{}, school.ErrNotFound
	}
	repo.db.teachers[tch.ID] = &tch
	return tch, nil
}

func (repo *schoolRepository) DeleteTeacher(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teachers[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.teachers, id)
	return nil
}

// ---------------------------------------------------------------- sections

func (repo *schoolRepository) CreateSection(_ context.Context, sec school.ClassSection) (school.ClassSection, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sec.ID = uuid.New().String()
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *schoolRepository) QueryAllSections(_ context.Context) ([]school.ClassSection, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sections := make([]school.ClassSection, 0, len(repo.db.sections))
	for _, sec := range repo.db.sections {
		sections = append(sections, *sec)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Name < sections[j].Name })
	return sections, nil
}

func (repo *schoolRepository) GetSectionByID(_ context.Context, id string) (school.ClassSection, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return school.ClassSection{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSection(_ context.Context, sec school.ClassSection) (school.ClassSection, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sections[sec.ID]; !ok {
		return school.ClassSection{}, school.ErrNotFound
	}
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *schoolRepository) DeleteSection(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sections[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.sections, id)
	return nil
}

// ---------------------------------------------------------------- subjects

func (repo *schoolRepository) CreateSubject(_ context.Context, sub school.Subject) (school.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *schoolRepository) QueryAllSubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(_ context.Context, id string) (school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrNotFound
}

func (repo *schoolRepository) DeleteSubject(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.subjects, id)
	return nil
}

// --------------------------------------------------------------- contracts

func (repo *schoolRepository) CreateContract(_ context.Context, con school.Contract) (school.Contract, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	con.ID = uuid.New().String()
	repo.db.contracts[con.ID] = &con
	return con, nil
}

func (repo *schoolRepository) GetContractByID(_ context.Context, id string) (school.Contract, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if con, ok := repo.db.contracts[id]; ok {
		return *con, nil
	}
	return school.Contract{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryContractsByStudent(_ context.Context, studentID string) ([]school.Contract, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contracts := make([]school.Contract, 0)
	for _, con := range repo.db.contracts {
		if con.StudentID == studentID {
			contracts = append(contracts, *con)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].CreatedAt.After(contracts[j].CreatedAt) })
	return contracts, nil
}

func (repo *schoolRepository) SetContractSigned(_ context.Context, id, path string) (school.Contract, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	con, ok := repo.db.contracts[id]
	if !ok {
		return school.Contract{}, school.ErrNotFound
	}
	con.Signed = true
	con.SignedFile.SetValid(path)
	return *con, nil
}
