package inventory

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

// Resource is a countable physical item available for loan.
// Quantity is the quantity currently available: checkouts decrement it,
// returns increment it. It never goes negative.
type Resource struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Loan is one checkout of a quantity of a Resource to a beneficiary:
// exactly one of StudentID, TeacherID or BeneficiaryName is set.
type Loan struct {
	ID              string      `json:"id" db:"id"`
	ResourceID      string      `json:"resource_id" db:"resource_id"`
	Quantity        int         `json:"quantity" db:"quantity"`
	StudentID       null.String `json:"student_id" db:"student_id"`
	TeacherID       null.String `json:"teacher_id" db:"teacher_id"`
	BeneficiaryName null.String `json:"beneficiary_name" db:"beneficiary_name"`
	CheckedOutAt    time.Time   `json:"checked_out_at" db:"checked_out_at"`
	ExpectedReturn  time.Time   `json:"expected_return" db:"expected_return"`
	Returned        bool        `json:"returned" db:"returned"`
	ReturnedAt      null.Time   `json:"returned_at" db:"returned_at"`
}

// NewResource contains information needed to register a Resource.
type NewResource struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Location string `json:"location"`
}

func (nr *NewResource) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	nr.Type = core.CleanString(nr.Type)
	nr.Location = core.CleanString(nr.Location)
	return core.Validate.Struct(nr)
}

// NewLoan contains information needed to check out a Resource.
type NewLoan struct {
	ResourceID      string `json:"resource_id" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
	StudentID       string `json:"student_id"`
	TeacherID       string `json:"teacher_id"`
	BeneficiaryName string `json:"beneficiary_name"`
	ExpectedReturn  string `json:"expected_return" validate:"required,date_"`
}

func (nl *NewLoan) Validate() error {
	nl.StudentID = core.CleanString(nl.StudentID)
	nl.TeacherID = core.CleanString(nl.TeacherID)
	nl.BeneficiaryName = core.CleanString(nl.BeneficiaryName)

	if err := core.Validate.Struct(nl); err != nil {
		return err
	}
	return validateBeneficiary(nl.StudentID, nl.TeacherID, nl.BeneficiaryName)
}

// UpdateLoan defines what may be modified on an existing, unreturned Loan.
type UpdateLoan struct {
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	ExpectedReturn string `json:"expected_return" validate:"omitempty,date_"`
}

func (ul *UpdateLoan) Validate() error {
	return core.Validate.Struct(ul)
}

// QueryFilter narrows loan listings.
type QueryFilter struct {
	ResourceID string `query:"resource_id"`
	Returned   *bool  `query:"returned"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ResourceID == "" && qf.Returned == nil
}

func validateBeneficiary(studentID, teacherID, name string) error {
	var set int
	for _, v := range []string{studentID, teacherID, name} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		err := errBeneficiaryRequired
		return core.NewValidationError(err, core.FieldError{Field: "beneficiary", Error: err.Error()})
	}
	return nil
}
