package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

var statusRank = map[Status]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}

	return status, nil
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusRead
}

// Transition validates moving a message from current to requested.
// It returns the resulting status and whether it differs from current.
// Requesting the current status is an idempotent success; requesting an
// earlier one fails with ErrStaleTransition.
func Transition(current, requested Status) (Status, bool, error) {
	from, ok := statusRank[current]
	if !ok {
		return current, false, fmt.Errorf("%w: current status %q", ErrUnknownStatus, current)
	}

	to, ok := statusRank[requested]
	if !ok {
		return current, false, fmt.Errorf("%w: %q", ErrUnknownStatus, requested)
	}

	switch {
	case to == from:
		return current, false, nil
	case to < from:
		return current, false, fmt.Errorf("%w: %s -> %s", ErrStaleTransition, current, requested)
	default:
		return requested, true, nil
	}
}
