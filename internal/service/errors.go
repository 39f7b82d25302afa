package service

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotBookable  = errors.New("event is not open for booking")
	ErrSalesNotStarted   = errors.New("ticket sales have not started")
	ErrSalesEnded        = errors.New("ticket sales have ended")
	ErrInvalidTier       = errors.New("invalid ticket tier")
	ErrTierSoldOut       = errors.New("ticket tier sold out")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrUnauthorized      = errors.New("not allowed to act on this ticket")
	ErrAlreadyCancelled  = errors.New("ticket already cancelled")
	ErrCannotCancelUsed  = errors.New("used ticket cannot be cancelled")
	ErrAlreadyUsed       = errors.New("ticket already used")
	ErrTicketCancelled   = errors.New("ticket is cancelled")
	ErrInvalidEvent      = errors.New("invalid event definition")
	ErrCapacityBelowSold = errors.New("capacity below tickets sold")

	// ErrInvariantViolation means inventory and ledger disagree. It is
	// always logged and counted before it is returned.
	ErrInvariantViolation = errors.New("inventory invariant violated")
)
