// internal/permits/lifecycle_test.go
package permits

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/move-permit-backend/internal/models"
)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from models.PermitStatus
		cmd  models.PermitCommand
		to   models.PermitStatus
		ok   bool
	}{
		{models.PermitStatusDraft, models.PermitCommandSubmit, models.PermitStatusSubmitted, true},
		{models.PermitStatusSubmitted, models.PermitCommandBeginReview, models.PermitStatusUnderReview, true},
		{models.PermitStatusSubmitted, models.PermitCommandCancel, models.PermitStatusCancelled, true},
		{models.PermitStatusUnderReview, models.PermitCommandCancel, models.PermitStatusCancelled, true},
		{models.PermitStatusUnderReview, models.PermitCommandApprove, models.PermitStatusApproved, true},
		{models.PermitStatusUnderReview, models.PermitCommandReject, models.PermitStatusRejected, true},
		{models.PermitStatusApproved, models.PermitCommandComplete, models.PermitStatusCompleted, true},
		{models.PermitStatusDraft, models.PermitCommandCancel, "", false},
		{models.PermitStatusSubmitted, models.PermitCommandApprove, "", false},
		{models.PermitStatusApproved, models.PermitCommandCancel, "", false},
		{models.PermitStatusRejected, models.PermitCommandSubmit, "", false},
		{models.PermitStatusCompleted, models.PermitCommandComplete, "", false},
	}

	for _, tc := range cases {
		to, ok := CanTransition(tc.from, tc.cmd)
		assert.Equal(t, tc.ok, ok, "%s --%s-->", tc.from, tc.cmd)
		assert.Equal(t, tc.to, to, "%s --%s-->", tc.from, tc.cmd)
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, status := range models.TerminalStatuses() {
		for _, cmd := range models.PermitCommands() {
			_, ok := CanTransition(status, cmd)
			assert.False(t, ok, "%s must be terminal but accepts %s", status, cmd)
		}
	}
}

func TestAvailableCommands(t *testing.T) {
	assert.Equal(t,
		[]models.PermitCommand{models.PermitCommandCancel, models.PermitCommandApprove, models.PermitCommandReject},
		append(AvailableCommands(models.PermitStatusUnderReview, models.ActorRoleTenant),
			AvailableCommands(models.PermitStatusUnderReview, models.ActorRoleOwner)...))
	assert.Empty(t, AvailableCommands(models.PermitStatusCompleted, models.ActorRoleAdmin))
}

// Random command sequences from random actors never leave a terminal status
// and only ever land in statuses the table can produce.
func TestRandomCommandSequencesStayInTable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	roles := []models.ActorRole{models.ActorRoleTenant, models.ActorRoleOwner, models.ActorRoleAdmin}
	commands := models.PermitCommands()
	reachable := map[models.PermitStatus]bool{}
	for _, status := range ReachableStatuses() {
		reachable[status] = true
	}

	tenantID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for run := 0; run < 500; run++ {
		permit := &models.MovePermitRequest{
			TenantID:          tenantID,
			PermitType:        models.PermitTypeMoveIn,
			Status:            models.PermitStatusDraft,
			RequestedMoveDate: now.AddDate(0, 0, rng.Intn(5)-2),
		}
		terminalReached := false

		for step := 0; step < 12; step++ {
			cmd := commands[rng.Intn(len(commands))]
			actor := Actor{ID: uuid.New(), Role: roles[rng.Intn(len(roles))]}
			if actor.Role == models.ActorRoleTenant && rng.Intn(4) > 0 {
				actor.ID = tenantID
			}
			opts := TransitionOptions{Confirm: rng.Intn(2) == 0}
			if rng.Intn(2) == 0 {
				opts.ReviewNotes = "documents unclear"
			}

			before := permit.Status
			to, err := ValidateTransition(permit, cmd, actor, now, opts)
			if err != nil {
				assert.True(t, errors.Is(err, ErrUnauthorizedActor) ||
					errors.Is(err, ErrInvalidTransition) ||
					errors.Is(err, ErrReviewNotesRequired) ||
					errors.Is(err, ErrMoveDateNotReached), "unexpected error %v", err)
				continue
			}

			require.False(t, terminalReached, "left terminal status %s via %s", before, cmd)
			require.True(t, reachable[to], "unreachable status %s", to)
			permit.Status = to
			if to.IsTerminal() {
				terminalReached = true
			}
		}
	}
}

func TestReachableStatusesCoverAllStatuses(t *testing.T) {
	assert.ElementsMatch(t, models.PermitStatuses(), ReachableStatuses())
}
