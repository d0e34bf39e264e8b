package school

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

type (
	// Student is the registry entry everything else hangs off of: attendance
	// records, loans, suspensions, warnings and grades all reference it.
	Student struct {
		ID         string      `json:"id" db:"id"`
		Name       string      `json:"name" db:"name"`
		GuardianID null.String `json:"guardian_id" db:"guardian_id"`
		SectionID  null.String `json:"section_id" db:"section_id"`
		CreatedAt  time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
	}

	// Guardian is a student's responsible adult; warning notices are
	// e-mailed to the guardian's address.
	Guardian struct {
		ID         string      `json:"id" db:"id"`
		Name       string      `json:"name" db:"name"`
		Phone      string      `json:"phone" db:"phone"`
		Email      string      `json:"email" db:"email"`
		NationalID string      `json:"national_id" db:"national_id"`
		Birthday   null.Time   `json:"birthday" db:"birthday"`
		Address    null.String `json:"address" db:"address"`
		CreatedAt  time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
	}

	Teacher struct {
		ID         string    `json:"id" db:"id"`
		Name       string    `json:"name" db:"name"`
		Phone      string    `json:"phone" db:"phone"`
		Email      string    `json:"email" db:"email"`
		NationalID string    `json:"national_id" db:"national_id"`
		Birthday   null.Time `json:"birthday" db:"birthday"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"`
		UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
	}

	// ClassSection is a class group ("turma"); Itinerary is the elective
	// track the section follows.
	ClassSection struct {
		ID        string      `json:"id" db:"id"`
		Name      string      `json:"name" db:"name"`
		Itinerary null.String `json:"itinerary" db:"itinerary"`
		CreatedAt time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
	}

	Subject struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	}

	// Contract is the enrollment agreement for one student. Signed flips
	// once when the countersigned copy is attached.
	Contract struct {
		ID         string      `json:"id" db:"id"`
		StudentID  string      `json:"student_id" db:"student_id"`
		Signed     bool        `json:"signed" db:"signed"`
		SignedFile null.String `json:"signed_file" db:"signed_file"`
		CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	}
)

// NewStudent contains information needed to register a Student.
type NewStudent struct {
	Name       string `json:"name" validate:"required"`
	GuardianID string `json:"guardian_id" validate:"omitempty"`
	SectionID  string `json:"section_id" validate:"omitempty"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.GuardianID = core.CleanString(ns.GuardianID)
	ns.SectionID = core.CleanString(ns.SectionID)
	return core.Validate.Struct(ns)
}

// NewGuardian contains information needed to register a Guardian.
type NewGuardian struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty"`
	Email      string `json:"email" validate:"omitempty,email"`
	NationalID string `json:"national_id" validate:"omitempty"`
	Birthday   string `json:"birthday" validate:"omitempty,date_"`
	Address    string `json:"address" validate:"omitempty"`
}

func (ng *NewGuardian) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Phone = core.CleanString(ng.Phone)
	ng.Email = core.CleanString(ng.Email, true)
	ng.NationalID = core.CleanString(ng.NationalID)
	ng.Address = core.CleanString(ng.Address)
	return core.Validate.Struct(ng)
}

// NewTeacher contains information needed to register a Teacher.
type NewTeacher struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"omitempty"`
	Email      string `json:"email" validate:"omitempty,email"`
	NationalID string `json:"national_id" validate:"omitempty"`
	Birthday   string `json:"birthday" validate:"omitempty,date_"`
}

func (nt *NewTeacher) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Email = core.CleanString(nt.Email, true)
	nt.NationalID = core.CleanString(nt.NationalID)
	return core.Validate.Struct(nt)
}

// NewClassSection contains information needed to create a ClassSection.
type NewClassSection struct {
	Name      string `json:"name" validate:"required"`
	Itinerary string `json:"itinerary" validate:"omitempty"`
}

func (nc *NewClassSection) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Itinerary = core.CleanString(nc.Itinerary)
	return core.Validate.Struct(nc)
}

// NewSubject contains information needed to create a Subject.
type NewSubject struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

// StudentFilter narrows student listings; zero fields are ignored.
type StudentFilter struct {
	SectionID  string
	GuardianID string
	Search     string // case-insensitive name match
}
