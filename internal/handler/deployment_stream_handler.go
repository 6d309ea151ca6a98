package handler

import (
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/internal/pkg/serverutils"
	internalWS "email-onboarding-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// DeploymentStreamHandler pushes TAXONOMY_RECONCILED and DEPLOYMENT_FAILED
// events to the tenant that owns them, so clients of async deployments
// learn when their job finished.
type DeploymentStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewDeploymentStreamHandler(hub *internalWS.Hub, log logger.ILogger) *DeploymentStreamHandler {
	return &DeploymentStreamHandler{hub: hub, logger: log}
}

// ServeWs authenticates before the upgrade. Browsers cannot set headers on
// a websocket handshake, so the token may also come as ?token=.
func (h *DeploymentStreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (query 'token' or header 'Authorization')"))
	}

	tenantID, err := serverutils.ParseTenantToken(tokenStr)
	if err != nil {
		h.logger.Warn(logger.ModuleStream, "Rejected stream handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(logger.ModuleStream, "Stream opened", map[string]interface{}{"tenant_id": tenantID})
		internalWS.ServeWs(h.hub, conn, tenantID)
		h.logger.Info(logger.ModuleStream, "Stream closed", map[string]interface{}{"tenant_id": tenantID})
	})(c)
}

func (h *DeploymentStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/deployments", h.ServeWs)
}
