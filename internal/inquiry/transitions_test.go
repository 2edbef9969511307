package inquiry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tes/crm/internal/models"
)

func TestValidateTransition_HappyPath(t *testing.T) {
	// A successful sale walks the pipeline end to end.
	path := []models.InquiryStatus{
		models.StatusNew,
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusViewingScheduled,
		models.StatusViewedInterested,
		models.StatusDepositPaid,
		models.StatusSuccessful,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, ValidateTransition(path[i], path[i+1]),
			"expected %s -> %s to be allowed", path[i], path[i+1])
	}
}

func TestValidateTransition_NoSelfLoops(t *testing.T) {
	for _, status := range models.AllStatuses {
		assert.False(t, ValidateTransition(status, status),
			"expected %s -> %s to be rejected", status, status)
	}
}

func TestValidateTransition_TerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []models.InquiryStatus{models.StatusSuccessful, models.StatusCancelled} {
		for _, target := range models.AllStatuses {
			assert.False(t, ValidateTransition(terminal, target),
				"expected terminal %s -> %s to be rejected", terminal, target)
		}
	}
}

func TestValidateTransition_NoSkipping(t *testing.T) {
	assert.False(t, ValidateTransition(models.StatusNew, models.StatusViewingScheduled))
	assert.False(t, ValidateTransition(models.StatusNew, models.StatusSuccessful))
	assert.False(t, ValidateTransition(models.StatusAssigned, models.StatusDepositPaid))
	assert.False(t, ValidateTransition(models.StatusViewingScheduled, models.StatusSuccessful))
}

func TestValidateTransition_NoBackwardSteps(t *testing.T) {
	assert.False(t, ValidateTransition(models.StatusAssigned, models.StatusNew))
	assert.False(t, ValidateTransition(models.StatusDepositPaid, models.StatusViewedInterested))
	assert.False(t, ValidateTransition(models.StatusViewingScheduled, models.StatusInProgress))
}

func TestValidateTransition_UndecidedCanSettle(t *testing.T) {
	assert.True(t, ValidateTransition(models.StatusViewedUndecided, models.StatusViewedInterested))
	assert.True(t, ValidateTransition(models.StatusViewedUndecided, models.StatusViewedNotInterested))
}

func TestValidateTransition_ReservedPropertyDetour(t *testing.T) {
	assert.True(t, ValidateTransition(models.StatusInProgress, models.StatusWaitingReserved))
	assert.True(t, ValidateTransition(models.StatusWaitingReserved, models.StatusViewingScheduled))
	assert.False(t, ValidateTransition(models.StatusWaitingReserved, models.StatusDepositPaid))
}

func TestValidateTransition_CancellableFromActiveStates(t *testing.T) {
	for _, status := range models.AllStatuses {
		if status.IsTerminal() {
			continue
		}
		assert.True(t, ValidateTransition(status, models.StatusCancelled),
			"expected %s -> Cancelled to be allowed", status)
	}
}

func TestValidateTransition_UnknownStatus(t *testing.T) {
	assert.False(t, ValidateTransition(models.InquiryStatus("Bogus"), models.StatusNew))
	assert.False(t, ValidateTransition(models.StatusNew, models.InquiryStatus("Bogus")))
}

func TestAllowedTransitions(t *testing.T) {
	next := AllowedTransitions(models.StatusNew)
	assert.ElementsMatch(t, []models.InquiryStatus{models.StatusAssigned, models.StatusCancelled}, next)

	assert.Empty(t, AllowedTransitions(models.StatusSuccessful))
	assert.Empty(t, AllowedTransitions(models.StatusCancelled))
	assert.Nil(t, AllowedTransitions(models.InquiryStatus("Bogus")))
}

func TestCanReassign(t *testing.T) {
	assert.True(t, CanReassign(models.StatusNew))
	assert.True(t, CanReassign(models.StatusViewedInterested))
	assert.False(t, CanReassign(models.StatusDepositPaid))
	assert.False(t, CanReassign(models.StatusSuccessful))
}
