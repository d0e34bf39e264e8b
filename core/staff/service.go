package staff

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var (
	ErrNotFound       = errors.New("staff member not found")
	ErrEmailExists    = errors.New("a staff member with this email already exists")
	ErrUsernameExists = errors.New("a staff member with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...Staff) error
		CreateStaff(ctx context.Context, stf Staff) (Staff, error)
		QueryAllStaff(ctx context.Context) ([]Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		GetStaffByUsernameOrEmail(ctx context.Context, username string) (Staff, error)
		UpdateStaff(ctx context.Context, stf Staff) (Staff, error)
		// UpdateOrCreateStaff matches on username or email; used by the admin CLI.
		UpdateOrCreateStaff(ctx context.Context, stf Staff) (Staff, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (s *Service) CheckUniqueness(uname, email string, excluded ...Staff) error {
	if err := s.repo.CheckUsernameUniqueness(context.Background(), uname, email, excluded...); err != nil {
		switch errors.Cause(err) {
		case ErrUsernameExists:
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		case ErrEmailExists:
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		default:
			return err
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	stf := Staff{
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := stf.SetPassword(ns.Password); err != nil {
		return Staff{}, errors.Wrap(err, "setting password")
	}

	stf, err := s.repo.CreateStaff(ctx, stf)
	if err != nil {
		return Staff{}, err
	}
	s.sendWelcomeEmail(stf)
	return stf, nil
}

func (s *Service) sendWelcomeEmail(stf Staff) {
	if stf.Email == "" {
		return
	}
	s.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stf.Name, Address: stf.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: struct{ Name, Username string }{stf.Name, stf.Username},
	})
}

func (s *Service) QueryAll(ctx context.Context) ([]Staff, error) {
	return s.repo.QueryAllStaff(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Staff, error) {
	return s.repo.GetStaffByID(ctx, id)
}

func (s *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (Staff, error) {
	return s.repo.GetStaffByUsernameOrEmail(ctx, core.CleanString(uname, true))
}

func (s *Service) SetLastLogin(ctx context.Context, stf Staff) (Staff, error) {
	stf.LastLogin = time.Now().UTC()
	return s.repo.UpdateStaff(ctx, stf)
}
