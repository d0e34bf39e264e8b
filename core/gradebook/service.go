package gradebook

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/school"
)

var (
	ErrNotFound = errors.New("grade not found")
	// ErrValueOutOfRange rejects grades outside the 0..100 scale.
	ErrValueOutOfRange = errors.New("grade value must be between 0 and 100")
)

// Chart color hints; at-risk bars render red.
const (
	colorDefault = "skyblue"
	colorAtRisk  = "red"
)

type (
	Repository interface {
		// UpsertGrade writes by (student, subject, period); resubmission
		// overwrites value and observation.
		UpsertGrade(ctx context.Context, g Grade) (Grade, error)
		// UpsertGrades applies the whole batch in one transaction.
		UpsertGrades(ctx context.Context, gs []Grade) error
		FilterGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		DeleteGrade(ctx context.Context, id string) error
	}

	// Registry is the slice of the school registry the grade book reads.
	Registry interface {
		GetStudent(ctx context.Context, id string) (school.Student, error)
		QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error)
		GetSubject(ctx context.Context, id string) (school.Subject, error)
		QuerySubjects(ctx context.Context) ([]school.Subject, error)
		GetSection(ctx context.Context, id string) (school.ClassSection, error)
	}

	// AttendanceReader supplies the attendance figures a report card shows.
	AttendanceReader interface {
		AbsenceCount(ctx context.Context, studentID, sectionID string) (int, error)
		Percentage(ctx context.Context, studentID, sectionID string) (attendance.Percentage, error)
		MonthlyPercentage(ctx context.Context, studentID string, months []time.Month) (present, absent int, pct attendance.Percentage, err error)
	}

	Service struct {
		repo     Repository
		registry Registry
		attSvc   AttendanceReader
	}
)

func NewService(repo Repository, registry Registry, attSvc AttendanceReader) *Service {
	return &Service{repo: repo, registry: registry, attSvc: attSvc}
}

// Upsert records one grade; the (student, subject, period) key makes
// resubmission an overwrite, never a duplicate.
func (s *Service) Upsert(ctx context.Context, ug UpsertGrade) (Grade, error) {
	if err := ug.Validate(); err != nil {
		return Grade{}, err
	}
	now := time.Now().UTC()
	g := Grade{
		StudentID: ug.StudentID,
		SubjectID: ug.SubjectID,
		Period:    ug.Period,
		Value:     ug.Value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ug.Observation != "" {
		g.Observation.SetValid(ug.Observation)
	}
	return s.repo.UpsertGrade(ctx, g)
}

// UpsertBatch records one grade-entry grid. Blank cells are skipped, not
// zeroed. Every non-blank value is validated before anything is written;
// one bad cell fails the whole batch.
func (s *Service) UpsertBatch(ctx context.Context, ub UpsertBatch) (int, error) {
	if err := ub.Validate(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	grades := make([]Grade, 0, len(ub.Cells))
	for i, cell := range ub.Cells {
		if cell.Value == "" {
			continue
		}
		value, err := strconv.ParseFloat(cell.Value, 64)
		if err != nil {
			return 0, core.NewValidationError(err, core.FieldError{
				Field: fmt.Sprintf("cells[%d].value", i),
				Error: "invalid number",
			})
		}
		if value < 0 || value > 100 {
			return 0, core.NewValidationError(ErrValueOutOfRange, core.FieldError{
				Field: fmt.Sprintf("cells[%d].value", i),
				Error: ErrValueOutOfRange.Error(),
			})
		}
		grades = append(grades, Grade{
			StudentID: cell.StudentID,
			SubjectID: cell.SubjectID,
			Period:    ub.Period,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(grades) == 0 {
		return 0, nil
	}
	if err := s.repo.UpsertGrades(ctx, grades); err != nil {
		return 0, errors.Wrap(err, "recording grade batch")
	}
	return len(grades), nil
}

func (s *Service) QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error) {
	return s.repo.FilterGrades(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteGrade(ctx, id)
}

// StudentAverage is the mean over every grade the student has; OK is false
// when there are none.
func (s *Service) StudentAverage(ctx context.Context, studentID string) (Average, error) {
	grades, err := s.repo.FilterGrades(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return Average{}, err
	}
	return mean(grades), nil
}

// SubjectAverage is the mean over every grade recorded for the subject.
func (s *Service) SubjectAverage(ctx context.Context, subjectID string) (Average, error) {
	grades, err := s.repo.FilterGrades(ctx, QueryFilter{SubjectID: subjectID})
	if err != nil {
		return Average{}, err
	}
	return mean(grades), nil
}

// ReportCard assembles the boletim projection for one student. With
// period > 0 only that bimester's grades and its months' attendance are
// included; with period 0 the whole year is shown.
func (s *Service) ReportCard(ctx context.Context, studentID string, period int) (ReportCard, error) {
	stu, err := s.registry.GetStudent(ctx, studentID)
	if err != nil {
		return ReportCard{}, err
	}

	card := ReportCard{StudentID: stu.ID, StudentName: stu.Name, Period: period}
	sectionID := ""
	if stu.SectionID.Valid {
		sectionID = stu.SectionID.String
		if sec, err := s.registry.GetSection(ctx, sectionID); err == nil {
			card.SectionName = sec.Name
		}
	}

	grades, err := s.repo.FilterGrades(ctx, QueryFilter{StudentID: studentID, Period: period})
	if err != nil {
		return ReportCard{}, err
	}

	bySubject := make(map[string][]Grade)
	for _, g := range grades {
		bySubject[g.SubjectID] = append(bySubject[g.SubjectID], g)
	}
	for subjectID, subjectGrades := range bySubject {
		line := ReportLine{SubjectID: subjectID, Values: make(map[int]float64, len(subjectGrades))}
		if sub, err := s.registry.GetSubject(ctx, subjectID); err == nil {
			line.Subject = sub.Name
		}
		for _, g := range subjectGrades {
			line.Values[g.Period] = g.Value
		}
		line.Average = mean(subjectGrades)
		line.AtRisk = line.Average.OK && line.Average.Value < AtRiskThreshold
		card.Lines = append(card.Lines, line)
	}
	sort.Slice(card.Lines, func(i, j int) bool { return card.Lines[i].Subject < card.Lines[j].Subject })

	if period > 0 {
		_, absent, pct, err := s.attSvc.MonthlyPercentage(ctx, studentID, PeriodMonths[period])
		if err != nil {
			return ReportCard{}, err
		}
		card.Absences = absent
		card.Presence, card.PresenceOK = pct.Value, pct.OK
	} else {
		absences, err := s.attSvc.AbsenceCount(ctx, studentID, sectionID)
		if err != nil {
			return ReportCard{}, err
		}
		pct, err := s.attSvc.Percentage(ctx, studentID, sectionID)
		if err != nil {
			return ReportCard{}, err
		}
		card.Absences = absences
		card.Presence, card.PresenceOK = pct.Value, pct.OK
	}
	return card, nil
}

// ReportCardDocument turns a report card into the rendering context the PDF
// collaborator consumes.
func (s *Service) ReportCardDocument(ctx context.Context, studentID string, period int) (core.Document, error) {
	card, err := s.ReportCard(ctx, studentID, period)
	if err != nil {
		return core.Document{}, err
	}

	doc := core.Document{
		Title:    "Report Card",
		Subtitle: card.StudentName,
		Meta: []core.DocumentField{
			{Label: "Student", Value: card.StudentName},
		},
		Footer: "School Administration",
	}
	if card.SectionName != "" {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Class", Value: card.SectionName})
	}
	if card.Period > 0 {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Period", Value: fmt.Sprintf("Bimester %d", card.Period)})
	} else {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Period", Value: "Full year"})
	}
	doc.Meta = append(doc.Meta, core.DocumentField{Label: "Absences", Value: strconv.Itoa(card.Absences)})
	if card.PresenceOK {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Presence", Value: fmt.Sprintf("%.1f%%", card.Presence)})
	} else {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Presence", Value: "no data"})
	}

	if card.Period > 0 {
		doc.Table.Header = []string{"Subject", "Grade", "Status"}
		for _, line := range card.Lines {
			doc.Table.Rows = append(doc.Table.Rows, []string{line.Subject, formatValue(line.Values[card.Period]), status(line.AtRisk)})
		}
	} else {
		doc.Table.Header = []string{"Subject", "B1", "B2", "B3", "B4", "Average", "Status"}
		for _, line := range card.Lines {
			row := []string{line.Subject}
			for p := MinPeriod; p <= MaxPeriod; p++ {
				if v, ok := line.Values[p]; ok {
					row = append(row, formatValue(v))
				} else {
					row = append(row, "-")
				}
			}
			avg := "-"
			if line.Average.OK {
				avg = formatValue(line.Average.Value)
			}
			row = append(row, avg, status(line.AtRisk))
			doc.Table.Rows = append(doc.Table.Rows, row)
		}
	}
	return doc, nil
}

// StudentPerformance charts one student's per-subject averages.
func (s *Service) StudentPerformance(ctx context.Context, studentID string) (core.BarChart, error) {
	stu, err := s.registry.GetStudent(ctx, studentID)
	if err != nil {
		return core.BarChart{}, err
	}
	grades, err := s.repo.FilterGrades(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return core.BarChart{}, err
	}

	chart := core.BarChart{
		Title:  fmt.Sprintf("Performance - %s", stu.Name),
		YLabel: "Average grade",
		YMax:   100,
	}
	bySubject := make(map[string][]Grade)
	for _, g := range grades {
		bySubject[g.SubjectID] = append(bySubject[g.SubjectID], g)
	}
	for _, subjectID := range sortedKeys(bySubject) {
		label := subjectID
		if sub, err := s.registry.GetSubject(ctx, subjectID); err == nil {
			label = sub.Name
		}
		appendBar(&chart, label, mean(bySubject[subjectID]).Value)
	}
	return chart, nil
}

// SectionPerformance charts the per-student averages of one class section.
func (s *Service) SectionPerformance(ctx context.Context, sectionID string) (core.BarChart, error) {
	sec, err := s.registry.GetSection(ctx, sectionID)
	if err != nil {
		return core.BarChart{}, err
	}
	students, err := s.registry.QueryStudents(ctx, school.StudentFilter{SectionID: sectionID})
	if err != nil {
		return core.BarChart{}, err
	}

	chart := core.BarChart{
		Title:  fmt.Sprintf("Performance - %s", sec.Name),
		YLabel: "Average grade",
		YMax:   100,
	}
	for _, stu := range students {
		grades, err := s.repo.FilterGrades(ctx, QueryFilter{StudentID: stu.ID})
		if err != nil {
			return core.BarChart{}, err
		}
		if avg := mean(grades); avg.OK {
			appendBar(&chart, stu.Name, avg.Value)
		}
	}
	return chart, nil
}

// SubjectPerformance charts the per-student averages within one subject.
func (s *Service) SubjectPerformance(ctx context.Context, subjectID string) (core.BarChart, error) {
	sub, err := s.registry.GetSubject(ctx, subjectID)
	if err != nil {
		return core.BarChart{}, err
	}
	grades, err := s.repo.FilterGrades(ctx, QueryFilter{SubjectID: subjectID})
	if err != nil {
		return core.BarChart{}, err
	}

	chart := core.BarChart{
		Title:  fmt.Sprintf("Performance - %s", sub.Name),
		YLabel: "Average grade",
		YMax:   100,
	}
	byStudent := make(map[string][]Grade)
	for _, g := range grades {
		byStudent[g.StudentID] = append(byStudent[g.StudentID], g)
	}
	for _, studentID := range sortedKeys(byStudent) {
		label := studentID
		if stu, err := s.registry.GetStudent(ctx, studentID); err == nil {
			label = stu.Name
		}
		appendBar(&chart, label, mean(byStudent[studentID]).Value)
	}
	return chart, nil
}

func appendBar(chart *core.BarChart, label string, value float64) {
	color := colorDefault
	if value < AtRiskThreshold {
		color = colorAtRisk
	}
	chart.Labels = append(chart.Labels, label)
	chart.Values = append(chart.Values, value)
	chart.Colors = append(chart.Colors, color)
}

func mean(grades []Grade) Average {
	if len(grades) == 0 {
		return Average{}
	}
	var sum float64
	for _, g := range grades {
		sum += g.Value
	}
	return Average{Value: sum / float64(len(grades)), OK: true}
}

func sortedKeys(m map[string][]Grade) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func status(atRisk bool) string {
	if atRisk {
		return "at risk"
	}
	return "ok"
}
