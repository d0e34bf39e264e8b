package discipline

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/school"
)

var (
	ErrSuspensionNotFound = errors.New("suspension not found")
	ErrWarningNotFound    = errors.New("warning not found")
	// ErrInvalidDateRange rejects suspensions whose start date falls after
	// their end date.
	ErrInvalidDateRange = errors.New("start date must not be after end date")
)

type (
	Repository interface {
		CreateSuspension(ctx context.Context, sus Suspension) (Suspension, error)
		GetSuspensionByID(ctx context.Context, id string) (Suspension, error)
		FilterSuspensions(ctx context.Context, filter SuspensionFilter) ([]Suspension, error)
		DeleteSuspension(ctx context.Context, id string) error

		CreateWarning(ctx context.Context, wrn Warning) (Warning, error)
		GetWarningByID(ctx context.Context, id string) (Warning, error)
		QueryWarnings(ctx context.Context, studentID string) ([]Warning, error)
		DeleteWarning(ctx context.Context, id string) error
	}

	// StudentDirectory resolves the student and guardian references a
	// warning document needs; the school registry implements it.
	StudentDirectory interface {
		GetStudent(ctx context.Context, id string) (school.Student, error)
		GetGuardian(ctx context.Context, id string) (school.Guardian, error)
	}

	Service struct {
		repo    Repository
		dir     StudentDirectory
		docSvc  core.DocumentService
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, dir StudentDirectory, docSvc core.DocumentService, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, dir: dir, docSvc: docSvc, mailSvc: mailSvc}
}

// CreateSuspension validates the date range and persists; it does not touch
// attendance or enrollment.
func (s *Service) CreateSuspension(ctx context.Context, ns NewSuspension, actorID string) (Suspension, error) {
	if err := ns.Validate(); err != nil {
		return Suspension{}, err
	}

	start, err := core.ParseDate(ns.StartDate)
	if err != nil {
		return Suspension{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: "invalid date"})
	}
	sus := Suspension{
		StudentID: ns.StudentID,
		SectionID: ns.SectionID,
		StartDate: start,
		Reason:    ns.Reason,
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if ns.EndDate != "" {
		end, err := core.ParseDate(ns.EndDate)
		if err != nil {
			return Suspension{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: "invalid date"})
		}
		if start.After(end) {
			return Suspension{}, core.NewValidationError(ErrInvalidDateRange,
				core.FieldError{Field: "end_date", Error: ErrInvalidDateRange.Error()})
		}
		sus.EndDate.SetValid(end)
	}
	return s.repo.CreateSuspension(ctx, sus)
}

// ListActive returns suspensions in force today, optionally narrowed to one
// section. A suspension with no end date stays active indefinitely.
func (s *Service) ListActive(ctx context.Context, sectionID string) ([]Suspension, error) {
	return s.repo.FilterSuspensions(ctx, SuspensionFilter{
		SectionID: sectionID,
		ActiveOn:  null.TimeFrom(core.Today()),
	})
}

// ListAll returns every suspension, active or not.
func (s *Service) ListAll(ctx context.Context, sectionID string) ([]Suspension, error) {
	return s.repo.FilterSuspensions(ctx, SuspensionFilter{SectionID: sectionID})
}

func (s *Service) GetSuspension(ctx context.Context, id string) (Suspension, error) {
	return s.repo.GetSuspensionByID(ctx, id)
}

func (s *Service) CreateWarning(ctx context.Context, nw NewWarning) (Warning, error) {
	if err := nw.Validate(); err != nil {
		return Warning{}, err
	}
	date, err := core.ParseDate(nw.Date)
	if err != nil {
		return Warning{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	wrn := Warning{
		StudentID: nw.StudentID,
		Date:      date,
		Reason:    nw.Reason,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.CreateWarning(ctx, wrn)
}

func (s *Service) GetWarning(ctx context.Context, id string) (Warning, error) {
	return s.repo.GetWarningByID(ctx, id)
}

func (s *Service) QueryWarnings(ctx context.Context, studentID string) ([]Warning, error) {
	return s.repo.QueryWarnings(ctx, studentID)
}

// WarningDocument builds the rendering context for one warning notice.
func (s *Service) WarningDocument(ctx context.Context, id string) (core.Document, error) {
	wrn, err := s.repo.GetWarningByID(ctx, id)
	if err != nil {
		return core.Document{}, err
	}
	stu, err := s.dir.GetStudent(ctx, wrn.StudentID)
	if err != nil {
		return core.Document{}, errors.Wrap(err, "resolving student")
	}

	doc := core.Document{
		Title:    "Disciplinary Warning",
		Subtitle: stu.Name,
		Meta: []core.DocumentField{
			{Label: "Student", Value: stu.Name},
			{Label: "Date", Value: wrn.Date.Format(core.DateFormat)},
		},
		Paragraphs: []string{
			fmt.Sprintf("This document records a formal disciplinary warning issued to %s on %s.",
				stu.Name, wrn.Date.Format("02/01/2006")),
			"Reason: " + wrn.Reason,
		},
		Footer: "School Coordination Team",
	}
	if stu.GuardianID.Valid {
		if gdn, err := s.dir.GetGuardian(ctx, stu.GuardianID.String); err == nil {
			doc.Meta = append(doc.Meta, core.DocumentField{Label: "Guardian", Value: gdn.Name})
		}
	}
	return doc, nil
}

// RenderWarning produces the warning notice PDF.
func (s *Service) RenderWarning(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.WarningDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.docSvc.RenderDocument(ctx, doc)
}

// IssueDocuments generates and e-mails the warning notice for each given
// warning. Per-item failures (missing guardian, missing address, rendering
// errors) are collected and reported; they never abort the remaining items
// and never roll back the warnings themselves.
func (s *Service) IssueDocuments(ctx context.Context, warningIDs []string) ([]DeliveryFailure, error) {
	failures := make([]DeliveryFailure, 0)
	fail := func(id, reason string) {
		failures = append(failures, DeliveryFailure{WarningID: id, Reason: reason})
	}

	for _, id := range warningIDs {
		wrn, err := s.repo.GetWarningByID(ctx, id)
		if err != nil {
			fail(id, "warning not found")
			continue
		}
		stu, err := s.dir.GetStudent(ctx, wrn.StudentID)
		if err != nil {
			fail(id, "student not found")
			continue
		}
		if !stu.GuardianID.Valid {
			fail(id, fmt.Sprintf("no guardian on file for %s", stu.Name))
			continue
		}
		gdn, err := s.dir.GetGuardian(ctx, stu.GuardianID.String)
		if err != nil || gdn.Email == "" {
			fail(id, fmt.Sprintf("no guardian e-mail on file for %s", stu.Name))
			continue
		}

		pdf, err := s.RenderWarning(ctx, id)
		if err != nil {
			fail(id, fmt.Sprintf("rendering document: %v", err))
			continue
		}

		msg := &core.EmailMessage{
			To:      []mail.Address{{Name: gdn.Name, Address: gdn.Email}},
			Subject: fmt.Sprintf("Disciplinary Warning - %s", stu.Name),
			BodyStr: fmt.Sprintf(
				"Dear %s,\n\nPlease find attached the disciplinary warning issued to %s on %s.\n\nSincerely,\nSchool Coordination Team",
				gdn.Name, stu.Name, wrn.Date.Format("02/01/2006"),
			),
		}
		msg.AttachBytes(pdf, "warning.pdf", "application/pdf")
		s.mailSvc.SendMessages(msg)
	}
	return failures, nil
}
