package inventory

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrLoanNotFound     = errors.New("loan not found")
	// ErrInsufficientStock is returned when a checkout or edit would drive
	// availability negative.
	ErrInsufficientStock = errors.New("quantity requested exceeds available stock")
	// ErrAlreadyReturned is returned on a second return attempt, and when
	// editing a returned loan: a returned loan is immutable.
	ErrAlreadyReturned = errors.New("loan has already been returned")

	errBeneficiaryRequired = errors.New("exactly one of student, teacher or beneficiary name is required")
)

type (
	// Repository owns the atomicity of stock movements: the availability
	// check, the counter adjustment and the loan write happen in a single
	// storage transaction so concurrent checkouts and returns against the
	// same resource serialize on the resource row.
	Repository interface {
		CreateResource(ctx context.Context, res Resource) (Resource, error)
		QueryAllResources(ctx context.Context) ([]Resource, error)
		GetResourceByID(ctx context.Context, id string) (Resource, error)
		UpdateResource(ctx context.Context, res Resource) (Resource, error)
		DeleteResource(ctx context.Context, id string) error

		// CreateLoan decrements the resource counter and inserts the loan
		// atomically; returns ErrInsufficientStock when the conditional
		// decrement matches no row.
		CreateLoan(ctx context.Context, loan Loan) (Loan, error)
		// UpdateLoanQuantity adjusts an unreturned loan's quantity, applying
		// the counter delta atomically; the availability check adds the
		// loan's current reservation back before comparing.
		UpdateLoanQuantity(ctx context.Context, loan Loan, newQty int, expectedReturn time.Time) (Loan, error)
		// MarkLoanReturned flips returned exactly once (guarded update) and
		// increments the resource counter in the same transaction.
		MarkLoanReturned(ctx context.Context, id string, at time.Time) (Loan, error)
		GetLoanByID(ctx context.Context, id string) (Loan, error)
		// FilterLoans lists loans matching filter; with no orderings the
		// most recent checkout comes first.
		FilterLoans(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Loan, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateResource(ctx context.Context, nr NewResource) (Resource, error) {
	now := time.Now().UTC()
	res := Resource{
		Name:      nr.Name,
		Type:      nr.Type,
		Quantity:  nr.Quantity,
		Location:  nr.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.CreateResource(ctx, res)
}

func (s *Service) QueryResources(ctx context.Context) ([]Resource, error) {
	return s.repo.QueryAllResources(ctx)
}

func (s *Service) GetResource(ctx context.Context, id string) (Resource, error) {
	return s.repo.GetResourceByID(ctx, id)
}

// Checkout creates a Loan after validating availability. The final check
// runs atomically in the repository; the early read gives callers a precise
// error without burning a transaction on obviously bad requests.
func (s *Service) Checkout(ctx context.Context, nl NewLoan) (Loan, error) {
	res, err := s.repo.GetResourceByID(ctx, nl.ResourceID)
	if err != nil {
		return Loan{}, err
	}
	if nl.Quantity > res.Quantity {
		return Loan{}, ErrInsufficientStock
	}

	expectedReturn, err := core.ParseDate(nl.ExpectedReturn)
	if err != nil {
		return Loan{}, core.NewValidationError(err, core.FieldError{Field: "expected_return", Error: "invalid date"})
	}

	loan := Loan{
		ResourceID:     res.ID,
		Quantity:       nl.Quantity,
		CheckedOutAt:   time.Now().UTC(),
		ExpectedReturn: expectedReturn,
	}
	if nl.StudentID != "" {
		loan.StudentID.SetValid(nl.StudentID)
	}
	if nl.TeacherID != "" {
		loan.TeacherID.SetValid(nl.TeacherID)
	}
	if nl.BeneficiaryName != "" {
		loan.BeneficiaryName.SetValid(nl.BeneficiaryName)
	}
	return s.repo.CreateLoan(ctx, loan)
}

// UpdateLoan edits an unreturned loan's quantity. The availability check
// adds the loan's own reservation back: newQty must not exceed
// available + current quantity, else every edit would appear to exceed
// stock by the amount the loan already holds.
func (s *Service) UpdateLoan(ctx context.Context, id string, ul UpdateLoan) (Loan, error) {
	loan, err := s.repo.GetLoanByID(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if loan.Returned {
		return Loan{}, ErrAlreadyReturned
	}

	res, err := s.repo.GetResourceByID(ctx, loan.ResourceID)
	if err != nil {
		return Loan{}, err
	}
	if ul.Quantity > res.Quantity+loan.Quantity {
		return Loan{}, ErrInsufficientStock
	}

	expectedReturn := loan.ExpectedReturn
	if ul.ExpectedReturn != "" {
		if expectedReturn, err = core.ParseDate(ul.ExpectedReturn); err != nil {
			return Loan{}, core.NewValidationError(err, core.FieldError{Field: "expected_return", Error: "invalid date"})
		}
	}
	return s.repo.UpdateLoanQuantity(ctx, loan, ul.Quantity, expectedReturn)
}

// MarkReturned returns a loan exactly once: the repository's guarded update
// ensures a second concurrent call cannot apply a second increment.
func (s *Service) MarkReturned(ctx context.Context, id string) (Loan, error) {
	loan, err := s.repo.GetLoanByID(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if loan.Returned {
		return Loan{}, ErrAlreadyReturned
	}
	return s.repo.MarkLoanReturned(ctx, id, time.Now().UTC())
}

func (s *Service) GetLoan(ctx context.Context, id string) (Loan, error) {
	return s.repo.GetLoanByID(ctx, id)
}

func (s *Service) QueryLoans(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Loan, error) {
	return s.repo.FilterLoans(ctx, filter, orderings...)
}
