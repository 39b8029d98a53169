package workflow

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownIntent is returned when confirming an intent that was never issued, was already
// confirmed or was cancelled.
var ErrUnknownIntent = errors.New("confirmation is unknown, already used or cancelled")

// Intent is the first half of a two-phase destructive action. Nothing happens until it is
// confirmed.
type Intent struct {
	Token   string
	Subject string
}

// confirmations tracks issued intents. Each one can be consumed at most once.
type confirmations struct {
	mu     sync.Mutex
	issued map[string]Intent
}

func newConfirmations() *confirmations {
	return &confirmations{issued: map[string]Intent{}}
}

func (c *confirmations) issue(subject string) Intent {
	intent := Intent{Token: uuid.NewString(), Subject: subject}

	c.mu.Lock()
	c.issued[intent.Token] = intent
	c.mu.Unlock()

	return intent
}

// consume removes the intent and reports whether it was live and about the same subject.
func (c *confirmations) consume(intent Intent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	issued, ok := c.issued[intent.Token]
	if !ok || issued.Subject != intent.Subject {
		return false
	}
	delete(c.issued, intent.Token)
	return true
}

func (c *confirmations) cancel(intent Intent) {
	c.mu.Lock()
	delete(c.issued, intent.Token)
	c.mu.Unlock()
}

func (c *confirmations) reset() {
	c.mu.Lock()
	c.issued = map[string]Intent{}
	c.mu.Unlock()
}
