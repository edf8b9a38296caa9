// internal/permits/lifecycle.go
package permits

import (
	"github.com/javajoker/move-permit-backend/internal/models"
)

// Transition is one row of the lifecycle table.
type Transition struct {
	From    models.PermitStatus
	Command models.PermitCommand
	To      models.PermitStatus
	Roles   []models.ActorRole
}

var tenantOnly = []models.ActorRole{models.ActorRoleTenant}

var managers = []models.ActorRole{models.ActorRoleOwner, models.ActorRoleAdmin}

var transitions = []Transition{
	{From: models.PermitStatusDraft, Command: models.PermitCommandSubmit, To: models.PermitStatusSubmitted, Roles: tenantOnly},
	{From: models.PermitStatusSubmitted, Command: models.PermitCommandBeginReview, To: models.PermitStatusUnderReview, Roles: managers},
	{From: models.PermitStatusSubmitted, Command: models.PermitCommandCancel, To: models.PermitStatusCancelled, Roles: tenantOnly},
	{From: models.PermitStatusUnderReview, Command: models.PermitCommandCancel, To: models.PermitStatusCancelled, Roles: tenantOnly},
	{From: models.PermitStatusUnderReview, Command: models.PermitCommandApprove, To: models.PermitStatusApproved, Roles: managers},
	{From: models.PermitStatusUnderReview, Command: models.PermitCommandReject, To: models.PermitStatusRejected, Roles: managers},
	{From: models.PermitStatusApproved, Command: models.PermitCommandComplete, To: models.PermitStatusCompleted, Roles: managers},
}

// CanTransition is the single source of lifecycle legality.
func CanTransition(from models.PermitStatus, cmd models.PermitCommand) (models.PermitStatus, bool) {
	for _, t := range transitions {
		if t.From == from && t.Command == cmd {
			return t.To, true
		}
	}
	return "", false
}

// Transitions returns a copy of the lifecycle table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// AllowedRoles lists who may issue cmd, regardless of current status.
func AllowedRoles(cmd models.PermitCommand) []models.ActorRole {
	for _, t := range transitions {
		if t.Command == cmd {
			return append([]models.ActorRole(nil), t.Roles...)
		}
	}
	return nil
}

func roleMayIssue(role models.ActorRole, cmd models.PermitCommand) bool {
	for _, allowed := range AllowedRoles(cmd) {
		if allowed == role {
			return true
		}
	}
	return false
}

// AvailableCommands lists the commands role could issue from status.
func AvailableCommands(status models.PermitStatus, role models.ActorRole) []models.PermitCommand {
	var commands []models.PermitCommand
	for _, t := range transitions {
		if t.From != status {
			continue
		}
		for _, allowed := range t.Roles {
			if allowed == role {
				commands = append(commands, t.Command)
				break
			}
		}
	}
	return commands
}

// ReachableStatuses is the "to" column of the table plus the initial draft.
func ReachableStatuses() []models.PermitStatus {
	seen := map[models.PermitStatus]bool{models.PermitStatusDraft: true}
	statuses := []models.PermitStatus{models.PermitStatusDraft}
	for _, t := range transitions {
		if !seen[t.To] {
			seen[t.To] = true
			statuses = append(statuses, t.To)
		}
	}
	return statuses
}
