package presale

import (
	"errors"
	"math/big"

	"core-launchpad/internal/domain"
)

// Participation errors, checked in this order.
var (
	ErrFinalized      = errors.New("presale is already finalized")
	ErrNotStarted     = errors.New("presale has not started yet")
	ErrEnded          = errors.New("presale has ended")
	ErrHardcapReached = errors.New("presale hardcap has been reached")
)

// ErrInvalidAmount is returned for a zero or negative contribution.
var ErrInvalidAmount = errors.New("amount must be positive")

// CheckParticipation reports why a presale does not accept contributions at
// now (unix seconds), or nil when it is open.
func CheckParticipation(p domain.PresaleData, now int64) error {
	switch p.RealStatus(now) {
	case domain.StatusFinalized:
		return ErrFinalized
	case domain.StatusComingSoon:
		return ErrNotStarted
	case domain.StatusEnded:
		return ErrEnded
	case domain.StatusHardcapReached:
		return ErrHardcapReached
	}
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
