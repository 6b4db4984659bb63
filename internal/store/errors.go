package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by every store implementation. Backends translate driver
// errors into these so callers never inspect SQLSTATE codes or redis
// replies.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrVersionConflict means a compare-and-set on a card's version lost.
	ErrVersionConflict = errors.New("version conflict")

	// ErrStatusConflict means a session left the status an update expected.
	ErrStatusConflict = errors.New("session status changed concurrently")

	ErrSessionNotFound       = fmt.Errorf("%w: generation session", ErrNotFound)
	ErrCandidateNotFound     = fmt.Errorf("%w: candidate card", ErrNotFound)
	ErrCardNotFound          = fmt.Errorf("%w: card", ErrNotFound)
	ErrKnowledgeItemNotFound = fmt.Errorf("%w: knowledge item", ErrNotFound)

	// Ownership failures are distinct from not-found so the API can answer
	// 403 instead of 404.
	ErrCardNotOwned    = errors.New("card not owned by caller")
	ErrSessionNotOwned = errors.New("generation session not owned by caller")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsOwnershipError reports whether err signals access to another owner's data.
func IsOwnershipError(err error) bool {
	return errors.Is(err, ErrCardNotOwned) || errors.Is(err, ErrSessionNotOwned)
}

// StoreError records which entity and operation failed around a sentinel
// or driver error.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := e.Operation + " " + e.Entity + ": " + e.Message
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
