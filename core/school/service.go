package school

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var ErrNotFound = errors.New("resource not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		FilterStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		CreateGuardian(ctx context.Context, gdn Guardian) (Guardian, error)
		QueryAllGuardians(ctx context.Context) ([]Guardian, error)
		GetGuardianByID(ctx context.Context, id string) (Guardian, error)
		UpdateGuardian(ctx context.Context, gdn Guardian) (Guardian, error)
		DeleteGuardian(ctx context.Context, id string) error

		CreateTeacher(ctx context.Context, tch Teacher) (Teacher, error)
		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		UpdateTeacher(ctx context.Context, tch Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error

		CreateSection(ctx context.Context, sec ClassSection) (ClassSection, error)
		QueryAllSections(ctx context.Context) ([]ClassSection, error)
		GetSectionByID(ctx context.Context, id string) (ClassSection, error)
		UpdateSection(ctx context.Context, sec ClassSection) (ClassSection, error)
		DeleteSection(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		CreateContract(ctx context.Context, con Contract) (Contract, error)
		GetContractByID(ctx context.Context, id string) (Contract, error)
		QueryContractsByStudent(ctx context.Context, studentID string) ([]Contract, error)
		// SetContractSigned flips the signed flag and stores the file path.
		SetContractSigned(ctx context.Context, id, path string) (Contract, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ---------------------------------------------------------------- students

func (s *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	stu := Student{Name: ns.Name, CreatedAt: now, UpdatedAt: now}
	if ns.GuardianID != "" {
		if _, err := s.repo.GetGuardianByID(ctx, ns.GuardianID); err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "guardian_id", Error: "unknown guardian"})
		}
		stu.GuardianID.SetValid(ns.GuardianID)
	}
	if ns.SectionID != "" {
		if _, err := s.repo.GetSectionByID(ctx, ns.SectionID); err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "section_id", Error: "unknown class section"})
		}
		stu.SectionID.SetValid(ns.SectionID)
	}
	return s.repo.CreateStudent(ctx, stu)
}

func (s *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return s.repo.FilterStudents(ctx, filter)
}

func (s *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return s.repo.GetStudentByID(ctx, id)
}

func (s *Service) UpdateStudent(ctx context.Context, id string, ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}
	stu, err := s.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	stu.Name = ns.Name
	stu.GuardianID.Valid = false
	if ns.GuardianID != "" {
		if _, err := s.repo.GetGuardianByID(ctx, ns.GuardianID); err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "guardian_id", Error: "unknown guardian"})
		}
		stu.GuardianID.SetValid(ns.GuardianID)
	}
	stu.SectionID.Valid = false
	if ns.SectionID != "" {
		if _, err := s.repo.GetSectionByID(ctx, ns.SectionID); err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "section_id", Error: "unknown class section"})
		}
		stu.SectionID.SetValid(ns.SectionID)
	}
	stu.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateStudent(ctx, stu)
}

func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	return s.repo.DeleteStudent(ctx, id)
}

// --------------------------------------------------------------- guardians

func (s *Service) CreateGuardian(ctx context.Context, ng NewGuardian) (Guardian, error) {
	if err := ng.Validate(); err != nil {
		return Guardian{}, err
	}
	now := time.Now().UTC()
	gdn := Guardian{
		Name:       ng.Name,
		Phone:      ng.Phone,
		Email:      ng.Email,
		NationalID: ng.NationalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ng.Birthday != "" {
		bd, err := core.ParseDate(ng.Birthday)
		if err != nil {
			return Guardian{}, core.NewValidationError(err, core.FieldError{Field: "birthday", Error: "invalid date"})
		}
		gdn.Birthday.SetValid(bd)
	}
	if ng.Address != "" {
		gdn.Address.SetValid(ng.Address)
	}
	return s.repo.CreateGuardian(ctx, gdn)
}

func (s *Service) QueryGuardians(ctx context.Context) ([]Guardian, error) {
	return s.repo.QueryAllGuardians(ctx)
}

func (s *Service) GetGuardian(ctx context.Context, id string) (Guardian, error) {
	return s.repo.GetGuardianByID(ctx, id)
}

func (s *Service) UpdateGuardian(ctx context.Context, id string, ng NewGuardian) (Guardian, error) {
	if err := ng.Validate(); err != nil {
		return Guardian{}, err
	}
	gdn, err := s.repo.GetGuardianByID(ctx, id)
	if err != nil {
		return Guardian{}, err
	}
	gdn.Name = ng.Name
	gdn.Phone = ng.Phone
	gdn.Email = ng.Email
	gdn.NationalID = ng.NationalID
	gdn.Birthday.Valid = false
	if ng.Birthday != "" {
		bd, err := core.ParseDate(ng.Birthday)
		if err != nil {
			return Guardian{}, core.NewValidationError(err, core.FieldError{Field: "birthday", Error: "invalid date"})
		}
		gdn.Birthday.SetValid(bd)
	}
	gdn.Address.Valid = false
	if ng.Address != "" {
		gdn.Address.SetValid(ng.Address)
	}
	gdn.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateGuardian(ctx, gdn)
}

func (s *Service) DeleteGuardian(ctx context.Context, id string) error {
	return s.repo.DeleteGuardian(ctx, id)
}

// ---------------------------------------------------------------- teachers

func (s *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(); err != nil {
		return Teacher{}, err
	}
	now := time.Now().UTC()
	tch := Teacher{
		Name:       nt.Name,
		Phone:      nt.Phone,
		Email:      nt.Email,
		NationalID: nt.NationalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nt.Birthday != "" {
		bd, err := core.ParseDate(nt.Birthday)
		if err != nil {
			return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "birthday", Error: "invalid date"})
		}
		tch.Birthday.SetValid(bd)
	}
	return s.repo.CreateTeacher(ctx, tch)
}

func (s *Service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return s.repo.QueryAllTeachers(ctx)
}

func (s *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return s.repo.GetTeacherByID(ctx, id)
}

func (s *Service) UpdateTeacher(ctx context.Context, id string, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(); err != nil {
		return Teacher{}, err
	}
	tch, err := s.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	tch.Name = nt.Name
	tch.Phone = nt.Phone
	tch.Email = nt.Email
	tch.NationalID = nt.NationalID
	tch.Birthday.Valid = false
	if nt.Birthday != "" {
		bd, err := core.ParseDate(nt.Birthday)
		if err != nil {
			return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "birthday", Error: "invalid date"})
		}
		tch.Birthday.SetValid(bd)
	}
	tch.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateTeacher(ctx, tch)
}

func (s *Service) DeleteTeacher(ctx context.Context, id string) error {
	return s.repo.DeleteTeacher(ctx, id)
}

// ---------------------------------------------------------------- sections

func (s *Service) CreateSection(ctx context.Context, nc NewClassSection) (ClassSection, error) {
	if err := nc.Validate(); err != nil {
		return ClassSection{}, err
	}
	now := time.Now().UTC()
	sec := ClassSection{Name: nc.Name, CreatedAt: now, UpdatedAt: now}
	if nc.Itinerary != "" {
		sec.Itinerary.SetValid(nc.Itinerary)
	}
	return s.repo.CreateSection(ctx, sec)
}

func (s *Service) QuerySections(ctx context.Context) ([]ClassSection, error) {
	return s.repo.QueryAllSections(ctx)
}

func (s *Service) GetSection(ctx context.Context, id string) (ClassSection, error) {
	return s.repo.GetSectionByID(ctx, id)
}

func (s *Service) UpdateSection(ctx context.Context, id string, nc NewClassSection) (ClassSection, error) {
	if err := nc.Validate(); err != nil {
		return ClassSection{}, err
	}
	sec, err := s.repo.GetSectionByID(ctx, id)
	if err != nil {
		return ClassSection{}, err
	}
	sec.Name = nc.Name
	sec.Itinerary.Valid = false
	if nc.Itinerary != "" {
		sec.Itinerary.SetValid(nc.Itinerary)
	}
	sec.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateSection(ctx, sec)
}

func (s *Service) DeleteSection(ctx context.Context, id string) error {
	return s.repo.DeleteSection(ctx, id)
}

// ---------------------------------------------------------------- subjects

func (s *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	now := time.Now().UTC()
	return s.repo.CreateSubject(ctx, Subject{Name: ns.Name, CreatedAt: now, UpdatedAt: now})
}

func (s *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return s.repo.QueryAllSubjects(ctx)
}

func (s *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return s.repo.GetSubjectByID(ctx, id)
}

func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	return s.repo.DeleteSubject(ctx, id)
}

// ---------------------------------------------------------------- contracts

func (s *Service) CreateContract(ctx context.Context, studentID string) (Contract, error) {
	if _, err := s.repo.GetStudentByID(ctx, studentID); err != nil {
		return Contract{}, err
	}
	return s.repo.CreateContract(ctx, Contract{StudentID: studentID, CreatedAt: time.Now().UTC()})
}

func (s *Service) GetContract(ctx context.Context, id string) (Contract, error) {
	return s.repo.GetContractByID(ctx, id)
}

func (s *Service) QueryContracts(ctx context.Context, studentID string) ([]Contract, error) {
	return s.repo.QueryContractsByStudent(ctx, studentID)
}

// AttachSignedContract records the countersigned copy's path and marks the
// contract signed.
func (s *Service) AttachSignedContract(ctx context.Context, id, path string) (Contract, error) {
	if path = core.CleanString(path); path == "" {
		return Contract{}, core.NewValidationError(errors.New("path is required"),
			core.FieldError{Field: "path", Error: "this field is required"})
	}
	if _, err := s.repo.GetContractByID(ctx, id); err != nil {
		return Contract{}, err
	}
	return s.repo.SetContractSigned(ctx, id, path)
}

// ContractDocument builds the rendering context for a student's enrollment
// contract; the PDF collaborator owns the layout.
func (s *Service) ContractDocument(ctx context.Context, studentID string) (core.Document, error) {
	stu, err := s.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return core.Document{}, err
	}

	doc := core.Document{
		Title:    "Enrollment Contract",
		Subtitle: stu.Name,
		Meta: []core.DocumentField{
			{Label: "Student", Value: stu.Name},
			{Label: "Date", Value: core.Today().Format(core.DateFormat)},
		},
		Paragraphs: []string{
			fmt.Sprintf("This instrument formalizes the enrollment of %s for the current school year.", stu.Name),
			"The undersigned guardian agrees to the school's internal rules, the attendance requirements and the payment schedule attached to this contract.",
		},
		Footer: "School Administration",
	}
	if stu.SectionID.Valid {
		if sec, err := s.repo.GetSectionByID(ctx, stu.SectionID.String); err == nil {
			doc.Meta = append(doc.Meta, core.DocumentField{Label: "Class", Value: sec.Name})
		}
	}
	if stu.GuardianID.Valid {
		gdn, err := s.repo.GetGuardianByID(ctx, stu.GuardianID.String)
		if err == nil {
			doc.Meta = append(doc.Meta, core.DocumentField{Label: "Guardian", Value: gdn.Name})
			if gdn.NationalID != "" {
				doc.Meta = append(doc.Meta, core.DocumentField{Label: "Guardian ID", Value: gdn.NationalID})
			}
		}
	}
	return doc, nil
}
