package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type pageController struct {
	service service.IChatStoreService
}

func NewPageController(service service.IChatStoreService) IPageController {
	return &pageController{service: service}
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/page")
	h.Get("/chat/:id?", c.Chat)
}

// Chat returns the state a chat page starts from. Without an id the page starts empty.
func (c *pageController) Chat(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	res := dto.ChatPageResponse{
		Id:              id,
		InitialMessages: []dto.UIMessage{},
	}

	if id != "" {
		messages, err := c.service.LoadChat(ctx.UserContext(), id)
		if err != nil {
			return err
		}
		res.InitialMessages = messages
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load chat page", res))
}
