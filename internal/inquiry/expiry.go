package inquiry

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
)

// ExpiryWarningDays is the days-remaining threshold below which an
// unexpired reservation is flagged.
const ExpiryWarningDays = 2

// Severity of an expiry warning.
type Severity string

const (
	SeverityDanger  Severity = "danger"  // Reservation already expired
	SeverityWarning Severity = "warning" // Expires within the warning window
)

// reservationStatuses are the inquiry statuses for which a reservation
// deadline is meaningful.
var reservationStatuses = map[models.InquiryStatus]bool{
	models.StatusWaitingReserved:  true,
	models.StatusViewingScheduled: true,
	models.StatusViewedInterested: true,
	models.StatusViewedUndecided:  true,
	models.StatusDepositPaid:      true,
}

// DaysUntilExpiry returns the whole days remaining until expiry, rounded
// up, clamped to zero once passed.
func DaysUntilExpiry(expiry, now time.Time) int {
	diff := expiry.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// IsExpired reports whether the expiry timestamp is strictly before now.
func IsExpired(expiry, now time.Time) bool {
	return expiry.Before(now)
}

// IsExpiryWarning reports whether expiry falls within the warning window:
// not yet passed, but at most ExpiryWarningDays away.
func IsExpiryWarning(expiry, now time.Time) bool {
	days := DaysUntilExpiry(expiry, now)
	return days > 0 && days <= ExpiryWarningDays
}

// ExpiryWarning flags one reservation approaching or past its deadline.
type ExpiryWarning struct {
	Inquiry       models.Inquiry `json:"inquiry"`
	DaysRemaining int            `json:"days_remaining"`
	IsExpired     bool           `json:"is_expired"`
	Message       string         `json:"message"`
	Severity      Severity       `json:"severity"`
}

// ScanForExpiryWarnings walks the given inquiries and emits a warning for
// each reservation that is expired (severity danger) or inside the
// warning window (severity warning). Only inquiries in a reservation
// status with a set expiry date are considered. The result is sorted
// ascending by days remaining, so expired reservations come first.
//
// The scan is pure and idempotent; once-a-day gating belongs to the
// scheduler that invokes it, not here.
func ScanForExpiryWarnings(inquiries []models.Inquiry, now time.Time) []ExpiryWarning {
	var warnings []ExpiryWarning

	for _, inq := range inquiries {
		if inq.ReservationExpiryDate == nil {
			continue
		}
		if !reservationStatuses[inq.Status] {
			continue
		}

		expiry := *inq.ReservationExpiryDate
		switch {
		case IsExpired(expiry, now):
			warnings = append(warnings, ExpiryWarning{
				Inquiry:       inq,
				DaysRemaining: 0,
				IsExpired:     true,
				Message:       fmt.Sprintf("Reservation for %q has expired", inq.PropertyName),
				Severity:      SeverityDanger,
			})
		case IsExpiryWarning(expiry, now):
			days := DaysUntilExpiry(expiry, now)
			warnings = append(warnings, ExpiryWarning{
				Inquiry:       inq,
				DaysRemaining: days,
				Message:       fmt.Sprintf("Reservation for %q expires in %s", inq.PropertyName, pluralDays(days)),
				Severity:      SeverityWarning,
			})
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].DaysRemaining < warnings[j].DaysRemaining
	})
	return warnings
}

// FilterWarningsByAgent keeps only warnings for inquiries assigned to the
// given agent.
func FilterWarningsByAgent(warnings []ExpiryWarning, agentID primitive.ObjectID) []ExpiryWarning {
	var out []ExpiryWarning
	for _, w := range warnings {
		if w.Inquiry.AssignedAgentID != nil && *w.Inquiry.AssignedAgentID == agentID {
			out = append(out, w)
		}
	}
	return out
}

// CountExpired returns how many of the warnings are already past their
// deadline.
func CountExpired(warnings []ExpiryWarning) int {
	n := 0
	for _, w := range warnings {
		if w.IsExpired {
			n++
		}
	}
	return n
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
