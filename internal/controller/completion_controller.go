package controller

import (
	"bufio"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/datastream"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// streamErrorMessage is what clients see for any provider failure; details go to the log.
const streamErrorMessage = "An error occurred."

type ICompletionController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Stateless(ctx *fiber.Ctx) error
}

type completionController struct {
	service service.ICompletionService
	logger  logger.ILogger
}

func NewCompletionController(service service.ICompletionService, log logger.ILogger) ICompletionController {
	return &completionController{service: service, logger: log}
}

func (c *completionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.Chat)
	h.Post("/stateless", c.Stateless)
}

func (c *completionController) Chat(ctx *fiber.Ctx) error {
	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	turn, err := c.service.StreamTurn(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.stream(ctx, turn)
}

func (c *completionController) Stateless(ctx *fiber.Ctx) error {
	var req dto.StatelessCompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	turn, err := c.service.StreamStateless(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.stream(ctx, turn)
}

func (c *completionController) stream(ctx *fiber.Ctx, turn *service.TurnStream) error {
	ctx.Set(fiber.HeaderContentType, datastream.ContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(datastream.HeaderName, datastream.HeaderVersion)

	// the writer runs after the handler returned, it must not touch ctx
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writeTurn(w, turn, c.logger)
	}))
	return nil
}

// writeTurn copies turn events to w as data-stream parts until the turn ends or a write fails.
func writeTurn(w *bufio.Writer, turn *service.TurnStream, log logger.ILogger) {
	defer turn.Detach()

	ds := datastream.NewWriter(w)
	for ev := range turn.Events {
		var err error
		switch ev.Kind {
		case service.CompletionStart:
			err = ds.StartStep(ev.MessageId)
		case service.CompletionDelta:
			err = ds.Text(ev.Delta)
		case service.CompletionError:
			err = ds.Error(streamErrorMessage)
		case service.CompletionFinish:
			usage := datastream.Usage{
				PromptTokens:     ev.Usage.PromptTokens,
				CompletionTokens: ev.Usage.CompletionTokens,
			}
			if err = ds.FinishStep(ev.FinishReason, usage, false); err == nil {
				err = ds.FinishMessage(ev.FinishReason, usage)
			}
		}
		if err == nil {
			err = w.Flush()
		}
		if err != nil {
			log.Info("COMPLETION", "Client stopped reading the stream", map[string]interface{}{
				"error": err,
			})
			return
		}
	}
}
