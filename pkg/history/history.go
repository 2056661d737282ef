// Package history records finished question/answer exchanges locally so a
// user can review what the chatbot said in earlier sessions.
package history

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Exchange is one question and the answer streamed back for it.
type Exchange struct {
	// ID is assigned by the driver on Save.
	ID int64

	SessionID string
	ProductID string
	Question  string
	Answer    string
	Sources   []string
	Debug     string

	// Failed is set when the stream ended with an error chunk. Answer then
	// holds whatever text arrived before the failure and Error the message.
	Failed bool
	Error  string

	CreatedAt time.Time
}

// Driver defines the interface for persisting and retrieving exchanges.
type Driver interface {
	// Save stores ex and sets its ID. A zero CreatedAt is set to now.
	Save(ctx context.Context, ex *Exchange) error

	// Get retrieves an exchange by ID.
	Get(ctx context.Context, id int64) (*Exchange, error)

	// List returns the most recent exchanges of a session, oldest first.
	// An empty sessionID lists across sessions. A limit <= 0 returns all.
	List(ctx context.Context, sessionID string, limit int) ([]*Exchange, error)

	// Sessions returns the known session IDs, most recently active first.
	Sessions(ctx context.Context) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNilExchange is returned by Save when given a nil exchange.
var ErrNilExchange = errors.New("cannot store nil exchange")

// NotFoundError is returned when an exchange doesn't exist in the store.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return "exchange not found"
	}

	return "exchange not found: " + strconv.FormatInt(e.ID, 10)
}

// Validate reports whether ex can be stored.
func Validate(ex *Exchange) error {
	if ex == nil {
		return ErrNilExchange
	}
	if ex.SessionID == "" {
		return errors.New("exchange has no session id")
	}
	return nil
}
