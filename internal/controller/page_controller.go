package controller

import (
	"bytes"
	"embed"
	"hash/fnv"
	"html/template"
	"net/url"
	"strconv"

	"ethics-review-be/internal/dto"
	"ethics-review-be/internal/entity"
	"ethics-review-be/internal/pkg/apperr"
	"ethics-review-be/internal/pkg/logger"
	"ethics-review-be/internal/pkg/serverutils"
	"ethics-review-be/internal/service"
	"ethics-review-be/pkg/markdown"
	"ethics-review-be/pkg/persona"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var agentPalette = []string{"#c63678", "#1f77b4", "#2ca02c", "#9467bd", "#8c564b", "#17becf", "#bcbd22", "#e377c2", "#7f7f7f", "#d62728"}

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	AddAgent(ctx *fiber.Ctx) error
	RemoveAgent(ctx *fiber.Ctx) error
	Review(ctx *fiber.Ctx) error
	Converse(ctx *fiber.Ctx) error
	Elaborate(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type pageController struct {
	sessionService      service.ISessionService
	conversationService service.IConversationService
	tokens              *serverutils.SessionTokens
	catalog             *persona.Catalog
	renderer            *markdown.Renderer
	maxRounds           int
	page                *template.Template
	logger              logger.ILogger
}

func NewPageController(
	sessionService service.ISessionService,
	conversationService service.IConversationService,
	tokens *serverutils.SessionTokens,
	catalog *persona.Catalog,
	maxRounds int,
	log logger.ILogger,
) IPageController {
	c := &pageController{
		sessionService:      sessionService,
		conversationService: conversationService,
		tokens:              tokens,
		catalog:             catalog,
		renderer:            markdown.NewRenderer(),
		maxRounds:           maxRounds,
		logger:              log,
	}
	c.page = template.Must(template.New("index.html").Funcs(template.FuncMap{
		"markdown":   c.renderer.Render,
		"agentColor": agentColor,
	}).ParseFS(templateFS, "templates/index.html"))
	return c
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Index)
	h := r.Group("/ui")
	h.Post("agents", c.AddAgent)
	h.Post("agents/:id/delete", c.RemoveAgent)
	h.Post("review", c.Review)
	h.Post("converse", c.Converse)
	h.Post("elaborate", c.Elaborate)
	h.Post("reset", c.Reset)
}

type roundView struct {
	Number  int
	Entries []entity.TranscriptEntry
}

type pageView struct {
	Session      *dto.SessionResponse
	Verdict      *entity.RiskVerdict
	VerdictText  entity.TranscriptEntry
	Rounds       []roundView
	Elaboration  *entity.TranscriptEntry
	Prompts      []persona.Prompt
	Presets      []persona.Persona
	RoundChoices []int
	Selected     int
	Error        string
	Blocked      bool
	HasHistory   bool
}

// agentColor gives every agent name a stable colour.
func agentColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return agentPalette[h.Sum32()%uint32(len(agentPalette))]
}

// currentSession returns the caller's session, starting a new one when the
// cookie is missing or the session expired.
func (c *pageController) currentSession(ctx *fiber.Ctx) (*entity.ReviewSession, error) {
	if id := serverutils.SessionID(ctx); id != "" {
		if sess, err := c.sessionService.Get(id); err == nil {
			return sess, nil
		}
	}
	sess, err := c.sessionService.Create(ctx.UserContext())
	if err != nil {
		return nil, err
	}
	if err := c.tokens.SetCookie(ctx, sess.Id); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *pageController) Index(ctx *fiber.Ctx) error {
	current, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	var view pageView
	err = c.sessionService.View(current.Id, func(sess *entity.ReviewSession) error {
		view = c.buildView(sess)
		return nil
	})
	if err != nil {
		return err
	}
	view.Error = ctx.Query("error")

	var buf bytes.Buffer
	if err := c.page.Execute(&buf, view); err != nil {
		return err
	}
	ctx.Type("html", "utf-8")
	return ctx.Send(buf.Bytes())
}

// buildView groups the transcript by round. Entries are copied out, so the
// view can be rendered after the session lock is released.
func (c *pageController) buildView(sess *entity.ReviewSession) pageView {
	view := pageView{
		Session:  dto.NewSessionResponse(sess),
		Prompts:  c.catalog.Prompts,
		Presets:  c.catalog.Presets,
		Selected: sess.Rounds,
		Blocked:  sess.State == entity.StateBlockedUnacceptable,
	}
	view.Verdict = view.Session.Verdict
	for i := 1; i <= c.maxRounds; i++ {
		view.RoundChoices = append(view.RoundChoices, i)
	}
	for i := range sess.Transcript {
		e := sess.Transcript[i]
		switch {
		case e.Kind == entity.EntryVerdict:
			view.VerdictText = e
		case e.Kind == entity.EntryRound:
			view.Rounds = append(view.Rounds, roundView{Number: e.Round})
		case e.Round == 0:
			view.Elaboration = &e
		case len(view.Rounds) > 0:
			last := &view.Rounds[len(view.Rounds)-1]
			last.Entries = append(last.Entries, e)
		}
	}
	view.HasHistory = len(view.Rounds) > 0 || view.Elaboration != nil
	return view
}

// redirect sends the browser back to the page, carrying err as a message.
func (c *pageController) redirect(ctx *fiber.Ctx, err error) error {
	if err == nil {
		return ctx.Redirect("/", fiber.StatusSeeOther)
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		c.logger.Error("PAGE", "Request failed", map[string]interface{}{"path": ctx.Path(), "error": err.Error()})
	}
	return ctx.Redirect("/?error="+url.QueryEscape(err.Error()), fiber.StatusSeeOther)
}

func (c *pageController) withSession(ctx *fiber.Ctx, fn func(sess *entity.ReviewSession) error) error {
	current, err := c.currentSession(ctx)
	if err != nil {
		return c.redirect(ctx, err)
	}
	sess, release, err := c.sessionService.Acquire(current.Id)
	if err != nil {
		return c.redirect(ctx, err)
	}
	defer release()
	return c.redirect(ctx, fn(sess))
}

func (c *pageController) AddAgent(ctx *fiber.Ctx) error {
	name := ctx.FormValue("name")
	role, err := roleFromRequest(ctx, ctx.FormValue("role"))
	if err != nil {
		return c.redirect(ctx, err)
	}
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		_, err := c.sessionService.AddAgent(ctx.UserContext(), sess, name, role)
		return err
	})
}

func (c *pageController) RemoveAgent(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		return c.sessionService.RemoveAgent(ctx.UserContext(), sess, id)
	})
}

func (c *pageController) Review(ctx *fiber.Ctx) error {
	description := ctx.FormValue("description")
	rounds, _ := strconv.Atoi(ctx.FormValue("rounds", "1"))
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		_, err := c.conversationService.Review(ctx.UserContext(), sess, description, rounds)
		return err
	})
}

func (c *pageController) Converse(ctx *fiber.Ctx) error {
	rounds, _ := strconv.Atoi(ctx.FormValue("rounds", "1"))
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		return c.conversationService.Converse(ctx.UserContext(), sess, rounds)
	})
}

func (c *pageController) Elaborate(ctx *fiber.Ctx) error {
	return c.withSession(ctx, func(sess *entity.ReviewSession) error {
		_, err := c.conversationService.Elaborate(ctx.UserContext(), sess)
		return err
	})
}

// Reset ends the session; the next page load starts a fresh one.
func (c *pageController) Reset(ctx *fiber.Ctx) error {
	if id := serverutils.SessionID(ctx); id != "" {
		if err := c.endSession(ctx, id); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return c.redirect(ctx, err)
		}
	}
	c.tokens.ClearCookie(ctx)
	return c.redirect(ctx, nil)
}

func (c *pageController) endSession(ctx *fiber.Ctx, id string) error {
	_, release, err := c.sessionService.Acquire(id)
	if err != nil {
		return err
	}
	defer release()
	return c.sessionService.End(ctx.UserContext(), id)
}
