package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

// Attendance statuses.
const (
	StatusPresent = "P"
	StatusAbsent  = "F"
)

// Record is one status for one student in one class section on one date.
// At most one record exists per (date, section, student); roll-call
// submissions upsert by that key.
type Record struct {
	ID         string      `json:"id" db:"id"`
	Date       time.Time   `json:"date" db:"date"`
	SectionID  string      `json:"section_id" db:"section_id"`
	StudentID  string      `json:"student_id" db:"student_id"`
	Status     string      `json:"status" db:"status"`
	RecordedBy null.String `json:"recorded_by" db:"recorded_by"`
	Note       null.String `json:"note" db:"note"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// RollCall is one roll-call form submission for a section on a date.
type RollCall struct {
	SectionID string            `json:"section_id" validate:"required"`
	Date      string            `json:"date" validate:"required,date_"`
	Entries   map[string]string `json:"entries" validate:"required,min=1"` // studentID -> status
}

func (rc *RollCall) Validate() error {
	rc.SectionID = core.CleanString(rc.SectionID)
	rc.Date = core.CleanString(rc.Date)

	if err := core.Validate.Struct(rc); err != nil {
		return err
	}
	// every status must be valid before anything is written
	for studentID, status := range rc.Entries {
		rc.Entries[studentID] = core.CleanString(status)
	}
	for _, status := range rc.Entries {
		if status != StatusPresent && status != StatusAbsent {
			return core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "entries", Error: ErrInvalidStatus.Error()})
		}
	}
	return nil
}

// Summary is the per-date, per-section roll-call rollup.
type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Percentage is a presence percentage; OK is false when there is no data.
type Percentage struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// DateSummary aggregates roll-calls taken on one date.
type DateSummary struct {
	Date     time.Time `json:"date"`
	Sections int       `json:"sections"`
	Records  int       `json:"records"`
}

// OverLimitStudent flags a (student, section) pair whose absence rate
// exceeds the configured threshold.
type OverLimitStudent struct {
	StudentID  string  `json:"student_id"`
	SectionID  string  `json:"section_id"`
	Absences   int     `json:"absences"`
	Sessions   int     `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// QueryFilter narrows attendance record queries; zero fields are ignored.
type QueryFilter struct {
	SectionID string
	StudentID string
	Status    string
	DateFrom  time.Time
	DateTo    time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SectionID == "" && qf.StudentID == "" && qf.Status == "" && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}
