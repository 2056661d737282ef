package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/faqbot/pkg/history"
	"github.com/papercomputeco/faqbot/pkg/history/inmemory"
)

// MockHistoryDriver wraps the in-memory driver and records calls.
type MockHistoryDriver struct {
	*inmemory.Driver

	// Saved accumulates all exchanges passed to Save.
	Saved []*history.Exchange

	// FailSave causes Save to return an error.
	FailSave bool

	// Closed is set once Close is called.
	Closed bool
}

func NewMockHistoryDriver() *MockHistoryDriver {
	return &MockHistoryDriver{
		Driver: inmemory.NewDriver(),
	}
}

func (m *MockHistoryDriver) Save(ctx context.Context, ex *history.Exchange) error {
	if m.FailSave {
		return errors.New("mock save failure")
	}
	if err := m.Driver.Save(ctx, ex); err != nil {
		return err
	}
	m.Saved = append(m.Saved, ex)
	return nil
}

func (m *MockHistoryDriver) Close() error {
	m.Closed = true
	return m.Driver.Close()
}
