package inquiry

import (
	"tes/crm/internal/models"
)

// validTransitions maps each inquiry status to the set of statuses it may
// move to. Unlisted targets are illegal; terminal statuses have no
// outgoing edges.
var validTransitions = map[models.InquiryStatus][]models.InquiryStatus{
	models.StatusNew: {
		models.StatusAssigned,
		models.StatusCancelled,
	},
	models.StatusAssigned: {
		models.StatusInProgress,
		models.StatusCancelled,
	},
	models.StatusInProgress: {
		models.StatusWaitingReserved,
		models.StatusViewingScheduled,
		models.StatusCancelled,
	},
	models.StatusWaitingReserved: {
		models.StatusViewingScheduled,
		models.StatusCancelled,
	},
	models.StatusViewingScheduled: {
		models.StatusViewedInterested,
		models.StatusViewedNotInterested,
		models.StatusViewedUndecided,
		models.StatusCancelled,
	},
	models.StatusViewedInterested: {
		models.StatusDepositPaid,
		models.StatusCancelled,
	},
	models.StatusViewedNotInterested: {
		models.StatusCancelled,
	},
	models.StatusViewedUndecided: {
		models.StatusViewedInterested,
		models.StatusViewedNotInterested,
		models.StatusCancelled,
	},
	models.StatusDepositPaid: {
		models.StatusSuccessful,
		models.StatusCancelled,
	},
	models.StatusSuccessful: {},
	models.StatusCancelled:  {},
}

// ValidateTransition reports whether an inquiry may move from current to
// proposed. Any edge not in the transition table is rejected, including
// self-loops and anything out of a terminal status.
func ValidateTransition(current, proposed models.InquiryStatus) bool {
	targets, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == proposed {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from current, in
// table order. Unknown statuses yield nil.
func AllowedTransitions(current models.InquiryStatus) []models.InquiryStatus {
	targets, ok := validTransitions[current]
	if !ok {
		return nil
	}
	out := make([]models.InquiryStatus, len(targets))
	copy(out, targets)
	return out
}

// CanReassign reports whether the assigned agent may still be changed.
// Once a deposit has been paid (or the sale closed) the inquiry sticks
// with its agent.
func CanReassign(status models.InquiryStatus) bool {
	return status != models.StatusDepositPaid && status != models.StatusSuccessful
}
