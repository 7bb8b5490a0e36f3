package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/command-center/internal/repository"
	"github.com/spec-kit/command-center/internal/view"
	apperrors "github.com/spec-kit/command-center/pkg/util/errorutil"
)

const recentActivityLimit = 50

// BoardHandler serves the read-only monitoring surfaces: the all-accounts
// status board and the recent activity tail.
type BoardHandler struct {
	board    *view.StatusBoard
	activity repository.ActivityLogRepository
}

// NewBoardHandler constructs handler.
func NewBoardHandler(board *view.StatusBoard, activity repository.ActivityLogRepository) *BoardHandler {
	return &BoardHandler{board: board, activity: activity}
}

// StatusBoard handles GET /admin/status-board.
func (h *BoardHandler) StatusBoard(c *fiber.Ctx) error {
	snapshot, err := h.board.Snapshot(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role_accounts": snapshot}})
}

// RecentActivity handles GET /admin/activity.
func (h *BoardHandler) RecentActivity(c *fiber.Ctx) error {
	entries, err := h.activity.Recent(c.UserContext(), recentActivityLimit)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"entries": entries}})
}
