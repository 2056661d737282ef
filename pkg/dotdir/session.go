package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	sessionFile = "session.json"
)

// SessionState is the chat session the CLI resumes. The backend keys its
// conversation history by SessionID, so reusing the ID keeps follow-up
// questions in context.
type SessionState struct {
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id,omitempty"`
	Language  string    `json:"language,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// NewSessionState returns a session with a fresh random ID.
func NewSessionState(productID, language string) *SessionState {
	return &SessionState{
		SessionID: uuid.NewString(),
		ProductID: productID,
		Language:  language,
		StartedAt: time.Now().UTC(),
	}
}

// LoadSession loads the session state from a target .faqbot/session.json.
// Returns nil, nil if no session has been saved.
func (m *Manager) LoadSession(overrideDir string) (*SessionState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}

	if state.SessionID == "" {
		return nil, errors.New("parsing session state: missing session_id")
	}

	return state, nil
}

// SaveSession persists the session state to .faqbot/session.json, creating
// ~/.faqbot/ if no directory resolves.
func (m *Manager) SaveSession(state *SessionState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil session state")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, sessionFile), data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}

	return nil
}

// ClearSession removes the session state file so the next chat starts a new
// conversation. Returns nil if there is nothing to clear.
func (m *Manager) ClearSession(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, sessionFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing session state: %w", err)
	}

	return nil
}
