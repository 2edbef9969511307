package inquiry

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
)

// NormalizePhone reduces a Philippine phone number to a canonical digit
// string: all non-digits stripped and an international 63 prefix
// rewritten to the local leading 0. Two numbers are considered equal iff
// their normalized forms are equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "63") {
		digits = "0" + digits[2:]
	}
	return digits
}

// FormatPhone renders a normalized mobile number as 0917-123-4567 for
// display. Numbers that don't normalize to the 11-digit local form are
// returned unchanged.
func FormatPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		return digits[:4] + "-" + digits[4:7] + "-" + digits[7:]
	}
	return phone
}

// ValidPhone reports whether a phone number is a plausible Philippine
// mobile number: 11 digits starting 09, or 12 digits starting 63.
func ValidPhone(phone string) bool {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && strings.HasPrefix(digits, "09") {
		return true
	}
	if len(digits) == 12 && strings.HasPrefix(digits, "63") {
		return true
	}
	return false
}

// NormalizeEmail lowers and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DuplicateResult is the outcome of duplicate detection. When IsDuplicate
// is true, Existing points at one matching inquiry; if several match, any
// one of them suffices.
type DuplicateResult struct {
	IsDuplicate bool
	Existing    *models.Inquiry
}

// DetectDuplicate scans existing inquiries for an active one by the same
// customer (matching normalized phone OR normalized email) on the same
// property. Inquiries that reached Successful or Cancelled no longer
// block a new submission.
func DetectDuplicate(email, phone string, propertyID primitive.ObjectID, existing []models.Inquiry) DuplicateResult {
	normEmail := NormalizeEmail(email)
	normPhone := NormalizePhone(phone)

	for i := range existing {
		inq := &existing[i]
		if inq.PropertyID != propertyID {
			continue
		}
		if !inq.Status.IsActive() {
			continue
		}
		emailMatch := normEmail != "" && NormalizeEmail(inq.CustomerEmail) == normEmail
		phoneMatch := normPhone != "" && NormalizePhone(inq.CustomerPhone) == normPhone
		if emailMatch || phoneMatch {
			return DuplicateResult{IsDuplicate: true, Existing: inq}
		}
	}
	return DuplicateResult{}
}
