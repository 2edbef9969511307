package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSender appends every email to a log file. Used alongside the real
// sender when LOG_EMAILS is set, so integration runs keep a record of
// what would have been delivered.
type FileSender struct {
	filePath string
}

// NewFileSender creates a FileSender, ensuring the directory exists.
func NewFileSender(filePath string) (Sender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email log file: %w", err)
	}
	return &FileSender{filePath: filePath}, nil
}

// Send appends the raw message to the log file.
func (s *FileSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	header := fmt.Sprintf("=== %s | To: %s | Subject: %s ===\n",
		time.Now().Format(time.RFC3339), strings.Join(to, ", "), subject)
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write email log: %w", err)
	}
	if _, err := file.Write(append(rawMessage, '\n')); err != nil {
		return fmt.Errorf("failed to write email log: %w", err)
	}
	return nil
}
