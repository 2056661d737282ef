package testutils

import (
	"time"

	"github.com/papercomputeco/faqbot/pkg/history"
)

// NewTestExchange creates a simple exchange for testing
func NewTestExchange(sessionID, question string, at time.Time) *history.Exchange {
	return &history.Exchange{
		SessionID: sessionID,
		ProductID: "1",
		Question:  question,
		Answer:    "answer to " + question,
		Sources:   []string{"Official FAQ"},
		CreatedAt: at,
	}
}
