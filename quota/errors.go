package quota

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroAccount is returned when an operation names no account.
	ErrZeroAccount = errors.New("quota: account is empty")

	// ErrInvalidPeriod is returned when a quota period is not positive.
	ErrInvalidPeriod = errors.New("quota: period must be positive")

	// ErrInvalidCap is returned when a quota cap is not positive.
	ErrInvalidCap = errors.New("quota: cap must be positive")

	// ErrNegativeAmount is returned when usage is negative.
	ErrNegativeAmount = errors.New("quota: usage amount is negative")

	// ErrQuotaExceeded is returned when recording usage would push the
	// rolling sum over the cap. The rejected usage is not recorded.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// ExceededError carries the window state at the time of rejection.
type ExceededError struct {
	Account   Account
	Cap       decimal.Decimal
	Used      decimal.Decimal
	Requested decimal.Decimal
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: used %s + requested %s > cap %s",
		e.Account, e.Used, e.Requested, e.Cap)
}

func (e *ExceededError) Unwrap() error {
	return ErrQuotaExceeded
}
