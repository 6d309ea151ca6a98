package controller

import (
	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/pkg/serverutils"
	"email-onboarding-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDeploymentController interface {
	RegisterRoutes(r fiber.Router)
	Preview(ctx *fiber.Ctx) error
	Deploy(ctx *fiber.Ctx) error
	GetLabelMap(ctx *fiber.Ctx) error
}

type deploymentController struct {
	service service.IDeploymentService
}

func NewDeploymentController(service service.IDeploymentService) IDeploymentController {
	return &deploymentController{service: service}
}

func (c *deploymentController) RegisterRoutes(r fiber.Router) {
	r.Post("/configurations/preview", serverutils.JwtMiddleware, c.Preview)
	r.Post("/deployments", serverutils.JwtMiddleware, c.Deploy)
	r.Get("/tenants/me/label-map", serverutils.JwtMiddleware, c.GetLabelMap)
}

func (c *deploymentController) Preview(ctx *fiber.Ctx) error {
	var req dto.PreviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Preview(ctx.Context(), serverutils.TenantID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success preview configuration", res))
}

func (c *deploymentController) Deploy(ctx *fiber.Ctx) error {
	var req dto.DeployRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Deploy(ctx.Context(), serverutils.TenantID(ctx), &req)
	if err != nil {
		return err
	}

	if res.Status == dto.DeploymentStatusQueued {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Deployment queued", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Deployment "+res.Status, res))
}

func (c *deploymentController) GetLabelMap(ctx *fiber.Ctx) error {
	res, err := c.service.GetLabelMap(ctx.Context(), serverutils.TenantID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get label map", res))
}
