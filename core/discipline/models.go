package discipline

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

// Suspension is a disciplinary action against a student within a class
// section, spanning a date range. A null end date means open-ended: the
// suspension stays active indefinitely once started.
type Suspension struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	SectionID string    `json:"section_id" db:"section_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   null.Time `json:"end_date" db:"end_date"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ActiveOn reports whether the suspension is in force on the given date:
// start <= date and (no end date or end >= date).
func (s Suspension) ActiveOn(date time.Time) bool {
	if s.StartDate.After(date) {
		return false
	}
	return !s.EndDate.Valid || !s.EndDate.Time.Before(date)
}

// NewSuspension contains information needed to record a Suspension.
type NewSuspension struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,date_"`
	EndDate   string `json:"end_date" validate:"omitempty,date_"`
	Reason    string `json:"reason" validate:"required"`
}

func (ns *NewSuspension) Validate() error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.SectionID = core.CleanString(ns.SectionID)
	ns.Reason = core.CleanString(ns.Reason)
	return core.Validate.Struct(ns)
}

// Warning is a written disciplinary notice; a formal document is generated
// from it and e-mailed to the student's guardian.
type Warning struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Date      time.Time `json:"date" db:"date"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewWarning contains information needed to record a Warning.
type NewWarning struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,date_"`
	Reason    string `json:"reason" validate:"required"`
}

func (nw *NewWarning) Validate() error {
	nw.StudentID = core.CleanString(nw.StudentID)
	nw.Reason = core.CleanString(nw.Reason)
	return core.Validate.Struct(nw)
}

// DeliveryFailure reports one warning whose document could not be prepared
// or addressed; processing of the remaining warnings continues.
type DeliveryFailure struct {
	WarningID string `json:"warning_id"`
	Reason    string `json:"reason"`
}

// SuspensionFilter narrows suspension listings. When ActiveOn is set only
// suspensions in force on that date are returned.
type SuspensionFilter struct {
	SectionID string
	ActiveOn  null.Time
}
