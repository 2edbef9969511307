package email

import (
	"context"
	"fmt"
	"strings"
)

// CompositeSender fans a message out to multiple Senders (e.g. SMTP plus
// a file log). Every sender is attempted; errors are collected.
type CompositeSender struct {
	senders []Sender
}

// NewCompositeSender creates a CompositeSender over the given senders.
func NewCompositeSender(senders ...Sender) *CompositeSender {
	return &CompositeSender{senders: senders}
}

// AddSender appends another delivery target.
func (cs *CompositeSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send delivers through every registered sender and returns the combined
// errors, if any.
func (cs *CompositeSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured")
	}

	var errs []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("composite send failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
