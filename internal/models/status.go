package models

import (
	"errors"
	"strings"
	"unicode"
)

// Status is the label held in the Status column. Operators may set ad hoc
// labels through update-status; the four constants are the canonical ones.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusDelivered  Status = "Delivered"
	StatusCanceled   Status = "Canceled"
)

// MaxStatusLabelLength bounds free-text labels from update-status
const MaxStatusLabelLength = 40

// synonym groups, matched case-insensitively after trimming
var statusSynonyms = map[string]Status{
	"pending":     StatusPending,
	"in progress": StatusInProgress,
	"en route":    StatusInProgress,
	"inprogress":  StatusInProgress,
	"in_progress": StatusInProgress,
	"delivered":   StatusDelivered,
	"complete":    StatusDelivered,
	"completed":   StatusDelivered,
	"canceled":    StatusCanceled,
	"cancelled":   StatusCanceled,
}

var (
	ErrTerminalStatus   = errors.New("errand is in a terminal status")
	ErrAlreadyDelivered = errors.New("errand is already delivered")
	ErrInvalidLabel     = errors.New("invalid status label")
	ErrUnknownOperation = errors.New("unknown operation")
)

// NormalizeStatus maps a label onto its canonical status. ok is false for
// labels outside every synonym group.
func NormalizeStatus(label string) (Status, bool) {
	s, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(label))]
	return s, ok
}

// Canonical returns the canonical status for s, if it has one
func (s Status) Canonical() (Status, bool) {
	return NormalizeStatus(string(s))
}

// IsTerminal reports whether no further status change is allowed
func (s Status) IsTerminal() bool {
	c, ok := s.Canonical()
	return ok && (c == StatusDelivered || c == StatusCanceled)
}

// Is compares against a canonical status, honouring synonyms
func (s Status) Is(target Status) bool {
	c, ok := s.Canonical()
	return ok && c == target
}

// CleanStatusLabel turns chat input such as "En_Route" into "En Route"
func CleanStatusLabel(label string) (string, error) {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " ")
	if cleaned == "" || len(cleaned) > MaxStatusLabelLength {
		return "", ErrInvalidLabel
	}
	for _, r := range cleaned {
		if !unicode.IsPrint(r) {
			return "", ErrInvalidLabel
		}
	}
	return cleaned, nil
}

// Operation is an engine call that may drive a transition
type Operation string

const (
	OpCreate       Operation = "create"
	OpAssign       Operation = "assign"
	OpUpdateStatus Operation = "update"
	OpComplete     Operation = "complete"
	OpCancel       Operation = "cancel"
	OpSetPaid      Operation = "set paid"
	OpVerifyOTP    Operation = "verify OTP"
)

// TransitionResult tells the engine what to write
type TransitionResult struct {
	To      Status
	Changed bool // status column must be rewritten
	Stamp   bool // lastUpdatedAt must be rewritten
}

// Transition applies the errand state machine.
//
//	create                    -> Pending (stamp)
//	assign        Pending     -> In Progress, other states unchanged
//	update        non-terminal -> label (stamp only for Delivered/Canceled)
//	complete      non-terminal -> Delivered (stamp)
//	cancel        non-terminal -> Canceled (stamp)
//	set paid      any         -> unchanged
//	verify OTP    non-terminal -> Delivered (stamp)
func Transition(from Status, op Operation, label string) (TransitionResult, error) {
	switch op {
	case OpCreate:
		return TransitionResult{To: StatusPending, Changed: true, Stamp: true}, nil

	case OpAssign:
		if from.Is(StatusPending) {
			return TransitionResult{To: StatusInProgress, Changed: true}, nil
		}
		return TransitionResult{To: from}, nil

	case OpUpdateStatus:
		if from.IsTerminal() {
			return TransitionResult{}, ErrTerminalStatus
		}
		cleaned, err := CleanStatusLabel(label)
		if err != nil {
			return TransitionResult{}, err
		}
		to := Status(cleaned)
		if canonical, ok := NormalizeStatus(cleaned); ok {
			to = canonical
		}
		return TransitionResult{To: to, Changed: true, Stamp: to.IsTerminal()}, nil

	case OpComplete, OpVerifyOTP:
		if from.Is(StatusDelivered) {
			return TransitionResult{}, ErrAlreadyDelivered
		}
		if from.IsTerminal() {
			return TransitionResult{}, ErrTerminalStatus
		}
		return TransitionResult{To: StatusDelivered, Changed: true, Stamp: true}, nil

	case OpCancel:
		if from.IsTerminal() {
			return TransitionResult{}, ErrTerminalStatus
		}
		return TransitionResult{To: StatusCanceled, Changed: true, Stamp: true}, nil

	case OpSetPaid:
		return TransitionResult{To: from}, nil
	}
	return TransitionResult{}, ErrUnknownOperation
}
