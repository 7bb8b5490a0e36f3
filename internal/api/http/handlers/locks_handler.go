package handlers

import (
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/command-center/internal/api/dto"
	"github.com/spec-kit/command-center/internal/auth"
	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/observability"
	"github.com/spec-kit/command-center/internal/service"
	"github.com/spec-kit/command-center/internal/view"
	apperrors "github.com/spec-kit/command-center/pkg/util/errorutil"
)

// LocksHandler drives the lock editing view and the commit flow. The handler
// owns the single LockStateView the admin panel renders; requesting a
// different RoleAccount's view switches the attachment, which cancels the
// previous account's subscriptions.
type LocksHandler struct {
	mu          sync.Mutex
	lockView    *view.LockStateView
	coordinator *service.AccessControlCoordinator
	metrics     *observability.Metrics
}

// NewLocksHandler constructs handler.
func NewLocksHandler(lockView *view.LockStateView, coordinator *service.AccessControlCoordinator, metrics *observability.Metrics) *LocksHandler {
	return &LocksHandler{lockView: lockView, coordinator: coordinator, metrics: metrics}
}

// View handles GET /admin/role-accounts/:account/lock-view.
func (h *LocksHandler) View(c *fiber.Ctx) error {
	account := domain.RoleAccount(c.Params("account"))
	if !account.Valid() {
		return apperrors.NewValidationError("unknown role account", fiber.Map{"account": c.Params("account")})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lockView.RoleAccount() != account {
		if err := h.lockView.SelectRoleAccount(c.UserContext(), account); err != nil {
			return apperrors.MapError(err)
		}
	}

	return c.JSON(fiber.Map{"data": dto.LockViewResponse{
		RoleAccount: account,
		Stale:       h.lockView.Stale(),
		Rows:        h.lockView.Rows(),
		Selection:   h.lockView.SelectedUsernames(),
		Staged:      h.lockView.Staged(),
	}})
}

// ToggleSelection handles POST /admin/role-accounts/:account/selection.
func (h *LocksHandler) ToggleSelection(c *fiber.Ctx) error {
	account := domain.RoleAccount(c.Params("account"))

	var req dto.ToggleSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" {
		return fiber.NewError(http.StatusBadRequest, "username required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lockView.RoleAccount() != account {
		return apperrors.NewValidationError("view is not attached to this role account", nil)
	}
	h.lockView.ToggleSelection(req.Username)

	return c.JSON(fiber.Map{"data": fiber.Map{
		"selection": h.lockView.SelectedUsernames(),
		"staged":    h.lockView.Staged(),
	}})
}

// ClearSelection handles DELETE /admin/role-accounts/:account/selection.
func (h *LocksHandler) ClearSelection(c *fiber.Ctx) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lockView.ClearSelection()
	return c.SendStatus(http.StatusNoContent)
}

// Propose handles POST /admin/role-accounts/:account/lock-changes. Targets
// default to the view's current selection when the body names none.
func (h *LocksHandler) Propose(c *fiber.Ctx) error {
	account := domain.RoleAccount(c.Params("account"))

	var req dto.ProposeLockChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	targets := req.Targets
	if len(targets) == 0 {
		h.mu.Lock()
		if h.lockView.RoleAccount() == account {
			targets = h.lockView.SelectedUsernames()
		}
		h.mu.Unlock()
	}

	change, err := h.coordinator.ProposeChange(c.UserContext(), account, targets, req.Capabilities, req.Reason, req.DurationLabel)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StagedChangeResponse{StagedChange: change}})
}

// Commit handles POST /admin/lock-changes/:id/commit.
func (h *LocksHandler) Commit(c *fiber.Ctx) error {
	stagedID := c.Params("id")

	var req dto.CommitLockChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	actor := "unknown"
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Admin != nil {
		actor = principal.Admin.Email
	}

	change, err := h.coordinator.ConfirmAndCommit(c.UserContext(), stagedID, req.ConfirmationSecret, actor)
	if err != nil {
		h.metrics.RecordCommit(string(h.lockView.RoleAccount()), false)
		return apperrors.MapError(err)
	}
	h.metrics.RecordCommit(string(change.RoleAccount), true)

	// Committed: the target selection is consumed along with the staged change.
	h.mu.Lock()
	if h.lockView.RoleAccount() == change.RoleAccount {
		h.lockView.ClearSelection()
	}
	h.mu.Unlock()

	return c.JSON(fiber.Map{"data": dto.StagedChangeResponse{StagedChange: change}})
}
