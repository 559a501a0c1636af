package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks a code's existence and validity window against a
// Repository. The clock is injectable for tests.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator creates a Validator backed by the given Repository.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// Validate looks up the code and checks that the current date lies within
// [StartDate, EndDate], inclusive at both ends. It returns ErrInvalidCode
// for unknown or out-of-window codes.
func (v *Validator) Validate(ctx context.Context, code string) (*Code, error) {
	c, err := v.repo.FindByID(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup discount code")
	}

	now := v.now()
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return nil, ErrInvalidCode
	}

	return c, nil
}
