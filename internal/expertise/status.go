package expertise

import (
	"fmt"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
)

type Action string

const (
	ActionSave            Action = "save"
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionSendForRevision Action = "send_for_revision"
	ActionReopen          Action = "reopen"
)

var transitions = map[string]map[Action]string{
	types.ExpertiseStatusPending: {
		ActionSave:   types.ExpertiseStatusInProgress,
		ActionSubmit: types.ExpertiseStatusCompleted,
	},
	types.ExpertiseStatusInProgress: {
		ActionSave:   types.ExpertiseStatusInProgress,
		ActionSubmit: types.ExpertiseStatusCompleted,
	},
	types.ExpertiseStatusCompleted: {
		ActionApprove:         types.ExpertiseStatusApproved,
		ActionReject:          types.ExpertiseStatusRejected,
		ActionSendForRevision: types.ExpertiseStatusRejected,
	},
	types.ExpertiseStatusRejected: {
		ActionSendForRevision: types.ExpertiseStatusRejected,
		ActionReopen:          types.ExpertiseStatusPending,
	},
}

// Transition returns the status reached from status by action.
func Transition(status string, action Action) (string, error) {
	if next, ok := transitions[status][action]; ok {
		return next, nil
	}
	return "", apierr.Conflict("invalid_transition", fmt.Sprintf("cannot %s an expertise in status %s", action, status))
}

// ActionFor maps a verdict onto the status machine.
func ActionFor(v Verdict) Action {
	if v == VerdictApproved {
		return ActionApprove
	}
	return ActionReject
}
