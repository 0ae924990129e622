package controller

import (
	"io"
	"strings"

	"ethics-review-be/internal/dto"
	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/serverutils"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/persona"

	"github.com/gofiber/fiber/v2"
)

const maxRoleFileSize = 1 << 20

type IReviewController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	AddAgent(ctx *fiber.Ctx) error
	RemoveAgent(ctx *fiber.Ctx) error
	Assess(ctx *fiber.Ctx) error
	Converse(ctx *fiber.Ctx) error
	Review(ctx *fiber.Ctx) error
	Elaborate(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Prompts(ctx *fiber.Ctx) error
}

type reviewController struct {
	sessionService      service.ISessionService
	conversationService service.IConversationService
	exportService       service.IExportService
	tokens              *serverutils.SessionTokens
	catalog             *persona.Catalog
}

func NewReviewController(
	sessionService service.ISessionService,
	conversationService service.IConversationService,
	exportService service.IExportService,
	tokens *serverutils.SessionTokens,
	catalog *persona.Catalog,
) IReviewController {
	return &reviewController{
		sessionService:      sessionService,
		conversationService: conversationService,
		exportService:       exportService,
		tokens:              tokens,
		catalog:             catalog,
	}
}

func (c *reviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/review/v1")
	h.Get("prompts", c.Prompts)
	h.Post("session", c.CreateSession)
	h.Get("session", serverutils.RequireSession, c.ShowSession)
	h.Delete("session", serverutils.RequireSession, c.EndSession)
	h.Post("agents", serverutils.RequireSession, c.AddAgent)
	h.Delete("agents/:id", serverutils.RequireSession, c.RemoveAgent)
	h.Post("assess", serverutils.RequireSession, c.Assess)
	h.Post("converse", serverutils.RequireSession, c.Converse)
	h.Post("review", serverutils.RequireSession, c.Review)
	h.Post("elaborate", serverutils.RequireSession, c.Elaborate)
	h.Get("export", serverutils.RequireSession, c.Export)
}

// withSession runs fn while holding the caller's session lock.
func (c *reviewController) withSession(ctx *fiber.Ctx, fn func(sess *entity.ReviewSession) error) error {
	sess, release, err := c.sessionService.Acquire(serverutils.SessionID(ctx))
	if err != nil {
		return err
	}
	defer release()
	return fn(sess)
}

func (c *reviewController) CreateSession(ctx *fiber.Ctx) error {
	sess, err := c.sessionService.Create(ctx.UserContext())
	if err != nil {
		return err
	}

	token, err := c.tokens.Sign(sess.Id)
	if err != nil {
		return err
	}
	if err := c.tokens.SetCookie(ctx, sess.Id); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", dto.CreateSessionResponse{
		Token:   token,
		Session: dto.NewSessionResponse(sess),
	}))
}

func (c *reviewController) ShowSession(ctx *fiber.Ctx) error {
	var resp *dto.SessionResponse
	err := c.sessionService.View(serverutils.SessionID(ctx), func(sess *entity.ReviewSession) error {
		resp = dto.NewSessionResponse(sess)
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", resp))
}

func (c *reviewController) EndSession(ctx *fiber.Ctx) error {
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if err := c.sessionService.End(ctx.UserContext(), sess.Id); err != nil {
			return err
		}
		c.tokens.ClearCookie(ctx)
		return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
	})
}

func (c *reviewController) AddAgent(ctx *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	role, err := roleFromRequest(ctx, req.Role)
	if err != nil {
		return err
	}
	req.Role = role

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		agent, err := c.sessionService.AddAgent(ctx.UserContext(), sess, req.Name, req.Role)
		if err != nil {
			return err
		}
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add agent", dto.NewAgentResponse(agent)))
	})
}

// roleFromRequest prefers an uploaded role_file over the typed role.
func roleFromRequest(ctx *fiber.Ctx, typed string) (string, error) {
	if !strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return requireRole(typed)
	}
	fh, err := ctx.FormFile("role_file")
	if err != nil {
		return requireRole(typed)
	}
	if fh.Size > maxRoleFileSize {
		return "", apperr.New(apperr.KindValidation, "agent.role_file", "role file is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindLocalFile, "agent.role_file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLocalFile, "agent.role_file", err)
	}

	role, err := persona.ParseRoleFile(fh.Filename, data)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "agent.role_file", err)
	}
	return role, nil
}

func requireRole(role string) (string, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return "", &serverutils.ValidationError{Fields: map[string]string{"role": "is required"}}
	}
	return role, nil
}

func (c *reviewController) RemoveAgent(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if err := c.sessionService.RemoveAgent(ctx.UserContext(), sess, id); err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success remove agent", dto.NewSessionResponse(sess)))
	})
}

func (c *reviewController) Assess(ctx *fiber.Ctx) error {
	var req dto.AssessRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if _, err := c.conversationService.Assess(ctx.UserContext(), sess, req.Description); err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success assess risk", dto.NewSessionResponse(sess)))
	})
}

func (c *reviewController) Converse(ctx *fiber.Ctx) error {
	var req dto.ConverseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if err := c.conversationService.Converse(ctx.UserContext(), sess, req.Rounds); err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success run conversation", dto.NewSessionResponse(sess)))
	})
}

func (c *reviewController) Review(ctx *fiber.Ctx) error {
	var req dto.ReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if _, err := c.conversationService.Review(ctx.UserContext(), sess, req.Description, req.Rounds); err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success run review", dto.NewSessionResponse(sess)))
	})
}

func (c *reviewController) Elaborate(ctx *fiber.Ctx) error {
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		if _, err := c.conversationService.Elaborate(ctx.UserContext(), sess); err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success elaborate verdict", dto.NewSessionResponse(sess)))
	})
}

func (c *reviewController) Export(ctx *fiber.Ctx) error {
	var text string
	err := c.sessionService.View(serverutils.SessionID(ctx), func(sess *entity.ReviewSession) error {
		text = c.exportService.Export(sess)
		return nil
	})
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	ctx.Attachment(service.ExportFilename)
	return ctx.SendString(text)
}

func (c *reviewController) Prompts(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get prompts", c.catalog.Prompts))
}
