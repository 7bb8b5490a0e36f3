package dto

import (
	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/service"
	"github.com/spec-kit/command-center/internal/view"
)

// ToggleSelectionRequest flips one username in or out of the target set.
type ToggleSelectionRequest struct {
	Username string `json:"username"`
}

// ProposeLockChangeRequest stages one lock template for a batch of targets.
type ProposeLockChangeRequest struct {
	Targets       []string            `json:"targets"`
	Capabilities  []domain.Capability `json:"capabilities"`
	Reason        domain.ReasonKind   `json:"reason"`
	DurationLabel string              `json:"duration_label"`
}

// CommitLockChangeRequest confirms a staged change.
type CommitLockChangeRequest struct {
	ConfirmationSecret string `json:"confirmation_secret"`
}

// LockViewResponse is the full editing model for the attached RoleAccount.
type LockViewResponse struct {
	RoleAccount domain.RoleAccount `json:"role_account"`
	Stale       bool               `json:"stale"`
	Rows        []view.Row         `json:"rows"`
	Selection   []string           `json:"selection"`
	Staged      view.Staged        `json:"staged"`
}

// StagedChangeResponse wraps a staged change.
type StagedChangeResponse struct {
	StagedChange *service.StagedChange `json:"staged_change"`
}
