package controller

import (
	"ethics-review-be/internal/dto"
	"ethics-review-be/internal/pkg/serverutils"
	"ethics-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	RefreshRegistry(ctx *fiber.Ctx) error
	SyncDocuments(ctx *fiber.Ctx) error
	GetDocuments(ctx *fiber.Ctx) error
	PurgeAgents(ctx *fiber.Ctx) error
}

type adminController struct {
	service    service.IAdminService
	adminToken string
}

func NewAdminController(service service.IAdminService, adminToken string) IAdminController {
	return &adminController{
		service:    service,
		adminToken: adminToken,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.AdminTokenMiddleware(c.adminToken))
	h.Post("registry/refresh", c.RefreshRegistry)
	h.Post("documents/sync", c.SyncDocuments)
	h.Get("documents", c.GetDocuments)
	h.Post("agents/purge", c.PurgeAgents)
}

func (c *adminController) RefreshRegistry(ctx *fiber.Ctx) error {
	res, err := c.service.RefreshRegistry(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success refresh registry", res))
}

func (c *adminController) SyncDocuments(ctx *fiber.Ctx) error {
	var req dto.SyncDocumentsRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	res, err := c.service.SyncDocuments(ctx.UserContext(), req.Dir)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success sync documents", res))
}

func (c *adminController) GetDocuments(ctx *fiber.Ctx) error {
	res, err := c.service.Documents(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get documents", dto.NewDocumentResponses(res)))
}

func (c *adminController) PurgeAgents(ctx *fiber.Ctx) error {
	req := dto.PurgeAgentsRequest{KeepReserved: true}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	deleted, err := c.service.PurgeAgents(ctx.UserContext(), req.KeepReserved)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success purge agents", dto.PurgeAgentsResponse{Deleted: deleted}))
}
