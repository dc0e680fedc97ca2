package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/boxoffice/internal/model"
)

// Sentinel errors returned by the services.  Handlers map them to HTTP
// statuses with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyUsed     = errors.New("ticket already used")
	ErrOrderNotPaid    = errors.New("order not paid")
	ErrOrderExpired    = errors.New("reservation expired")
	ErrUpstream        = errors.New("payment provider unavailable")
)

// SeatUnavailableError lists the requested seats that another order holds.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// AlreadyUsedError carries the ticket that was checked in earlier.
type AlreadyUsedError struct {
	Ticket model.Ticket
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("ticket for seat %s already used", e.Ticket.SeatID)
}

func (e *AlreadyUsedError) Is(target error) bool { return target == ErrAlreadyUsed }
