package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/command-center/internal/api/dto"
	"github.com/spec-kit/command-center/internal/auth"
	"github.com/spec-kit/command-center/internal/observability"
	"github.com/spec-kit/command-center/internal/service"
)

// PresenceHandler ingests heartbeats from staff terminals.
type PresenceHandler struct {
	presence *service.PresenceService
	metrics  *observability.Metrics
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(presenceService *service.PresenceService, metrics *observability.Metrics) *PresenceHandler {
	return &PresenceHandler{presence: presenceService, metrics: metrics}
}

// Heartbeat handles POST /presence/heartbeat. The RoleAccount is taken from
// the terminal token so a terminal cannot report presence for another account.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.HeartbeatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" {
		return fiber.NewError(http.StatusBadRequest, "username required")
	}

	if err := h.presence.RecordHeartbeat(c.UserContext(), principal.RoleAccount, req.Username); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	h.metrics.RecordHeartbeat(string(principal.RoleAccount))

	return c.SendStatus(http.StatusAccepted)
}
