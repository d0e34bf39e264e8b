package gradebook

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

// Grading periods are bimesters, 1 through 4.
const (
	MinPeriod = 1
	MaxPeriod = 4

	// AtRiskThreshold is the passing mark; grades below it are flagged.
	AtRiskThreshold = 70.0
)

// PeriodMonths maps each bimester to the calendar months it covers. July
// and December are school breaks and belong to no period.
var PeriodMonths = map[int][]time.Month{
	1: {time.January, time.February, time.March},
	2: {time.April, time.May, time.June},
	3: {time.August, time.September},
	4: {time.October, time.November},
}

// Grade is one mark for one student in one subject for one grading period.
// At most one grade exists per (student, subject, period); resubmission
// overwrites.
type Grade struct {
	ID          string      `json:"id" db:"id"`
	StudentID   string      `json:"student_id" db:"student_id"`
	SubjectID   string      `json:"subject_id" db:"subject_id"`
	Period      int         `json:"period" db:"period"`
	Value       float64     `json:"value" db:"value"`
	Observation null.String `json:"observation" db:"observation"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// AtRisk reports whether the grade falls below the passing mark.
func (g Grade) AtRisk() bool { return g.Value < AtRiskThreshold }

// UpsertGrade contains information needed to record one Grade.
type UpsertGrade struct {
	StudentID   string  `json:"student_id" validate:"required"`
	SubjectID   string  `json:"subject_id" validate:"required"`
	Period      int     `json:"period" validate:"required,gte=1,lte=4"`
	Value       float64 `json:"value" validate:"gte=0,lte=100"`
	Observation string  `json:"observation" validate:"omitempty"`
}

func (ug *UpsertGrade) Validate() error {
	ug.StudentID = core.CleanString(ug.StudentID)
	ug.SubjectID = core.CleanString(ug.SubjectID)
	ug.Observation = core.CleanString(ug.Observation)
	return core.Validate.Struct(ug)
}

// BatchCell is one cell of a grade-entry grid. An empty Value means the
// cell was left blank: it is skipped, never written as zero.
type BatchCell struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Value     string `json:"value"`
}

// UpsertBatch is one grade-entry grid submission for a section and period.
type UpsertBatch struct {
	SectionID string      `json:"section_id" validate:"required"`
	Period    int         `json:"period" validate:"required,gte=1,lte=4"`
	Cells     []BatchCell `json:"cells" validate:"required,min=1,dive"`
}

func (ub *UpsertBatch) Validate() error {
	ub.SectionID = core.CleanString(ub.SectionID)
	for i := range ub.Cells {
		ub.Cells[i].StudentID = core.CleanString(ub.Cells[i].StudentID)
		ub.Cells[i].SubjectID = core.CleanString(ub.Cells[i].SubjectID)
		ub.Cells[i].Value = core.CleanString(ub.Cells[i].Value)
	}
	return core.Validate.Struct(ub)
}

// Average is a grade mean; OK is false when there are no grades.
type Average struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// ReportLine is one subject row of a report card.
type ReportLine struct {
	SubjectID string          `json:"subject_id"`
	Subject   string          `json:"subject"`
	Values    map[int]float64 `json:"values"` // period -> value, absent periods omitted
	Average   Average         `json:"average"`
	AtRisk    bool            `json:"at_risk"`
}

// ReportCard is the boletim projection: per-subject grades plus the
// student's attendance figures for the covered months.
type ReportCard struct {
	StudentID   string       `json:"student_id"`
	StudentName string       `json:"student_name"`
	SectionName string       `json:"section_name"`
	Period      int          `json:"period"` // 0 = whole year
	Lines       []ReportLine `json:"lines"`
	Absences    int          `json:"absences"`
	Presence    float64      `json:"presence"`
	PresenceOK  bool         `json:"presence_ok"`
}

// QueryFilter narrows grade queries; zero fields are ignored.
type QueryFilter struct {
	StudentID string
	SubjectID string
	Period    int
}
