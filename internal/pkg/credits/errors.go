package credits

import "errors"

// Domain errors raised close to the point of detection and mapped to HTTP
// status codes at the handler boundary.
var (
	ErrInvalidCredits       = errors.New("credits must be a positive integer")
	ErrEmptyReason          = errors.New("reason must not be empty")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrAllocationRevoked    = errors.New("allocation has been revoked")
	ErrCategoryMismatch     = errors.New("invitation category does not match the requested category")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrReservationNotFound  = errors.New("no held reservation for this session")
	ErrReservationExpired   = errors.New("reservation has expired")
	ErrDuplicateReservation = errors.New("a reservation for this session is already held")
	ErrTooManyReservations  = errors.New("too many open reservations for this plan")
)
