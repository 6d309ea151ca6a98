package controller

import (
	"email-onboarding-be/internal/pkg/serverutils"
	"email-onboarding-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBusinessTypeController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
}

type businessTypeController struct {
	service service.IDeploymentService
}

func NewBusinessTypeController(service service.IDeploymentService) IBusinessTypeController {
	return &businessTypeController{service: service}
}

func (c *businessTypeController) RegisterRoutes(r fiber.Router) {
	r.Get("/business-types", c.GetAll)
}

func (c *businessTypeController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.ListBusinessTypes(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get business types", res))
}
