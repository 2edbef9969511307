package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tes/crm/internal/config"
)

// RedisSender stores emails in Redis instead of sending them. Integration
// tests fetch them back by recipient and kind to assert on notification
// content.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg}
}

// kindFromSubject buckets notification emails by subject so tests can
// address them without knowing exact wording.
func kindFromSubject(subject string) string {
	switch {
	case strings.Contains(subject, "New inquiry"):
		return "inquiry_created"
	case strings.Contains(subject, "Reservation expiry"):
		return "expiry_digest"
	default:
		return "other"
	}
}

// Send stores a JSON representation of the email under
// mockemail:<recipient>:<kind> with a short TTL.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	kind := kindFromSubject(subject)

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}
	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, kind)
	if err := s.client.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key %q: %w", key, err)
	}
	return nil
}
