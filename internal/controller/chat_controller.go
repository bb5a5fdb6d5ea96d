package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	LoadMessages(ctx *fiber.Ctx) error
	SaveMessages(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	UpdateVisibility(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatStoreService
}

func NewChatController(service service.IChatStoreService) IChatController {
	return &chatController{service: service}
}

// RegisterRoutes expects the identity middleware to be mounted on r already.
func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats/v1")
	h.Get("", c.GetAll)
	h.Post("", serverutils.RequireAuth, c.Create)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Get(":id/messages", c.LoadMessages)
	h.Put(":id/messages", serverutils.RequireAuth, c.SaveMessages)
	h.Patch(":id/visibility", c.UpdateVisibility)
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.CreateChat(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create chat", res))
}

func (c *chatController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetUserChats(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all chats", res))
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetChatById(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", res))
}

func (c *chatController) LoadMessages(ctx *fiber.Ctx) error {
	res, err := c.service.LoadChat(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load chat", res))
}

func (c *chatController) SaveMessages(ctx *fiber.Ctx) error {
	var req dto.SaveChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SaveChat(ctx.UserContext(), ctx.Params("id"), req.Messages); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success save chat", nil))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteChat(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat", nil))
}

func (c *chatController) UpdateVisibility(ctx *fiber.Ctx) error {
	var req dto.UpdateVisibilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.UpdateChatVisibility(ctx.UserContext(), ctx.Params("id"), *req.IsPublic); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success update chat visibility", nil))
}
