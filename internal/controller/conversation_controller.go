package controller

import (
	"errors"
	"fmt"

	"proposal-intake-be/internal/dto"
	"proposal-intake-be/internal/pkg/serverutils"
	"proposal-intake-be/internal/service"
	"proposal-intake-be/pkg/proposal/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DownloadProposal(ctx *fiber.Ctx) error
	Diagnose(ctx *fiber.Ctx) error
	ProposalStatus(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
	auth                fiber.Handler
}

func NewConversationController(conversationService service.IConversationService, auth fiber.Handler) IConversationController {
	return &conversationController{
		conversationService: conversationService,
		auth:                auth,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Post("start", c.Start)
	h.Post("message", c.SendMessage)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Get(":id/download-pdf", c.DownloadProposal)
	h.Post(":id/diagnose", c.Diagnose)
	h.Get(":id/proposal/status", c.ProposalStatus)
}

func (c *conversationController) Start(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.StartConversationRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.WrapAppError(fiber.StatusBadRequest, "Invalid request body", err)
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.StartConversation(ctx.UserContext(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Conversation started", res))
}

func (c *conversationController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.WrapAppError(fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.SendMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *conversationController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.ListConversations(ctx.UserContext(), userId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	userId, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.GetConversation(ctx.UserContext(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *conversationController) Delete(ctx *fiber.Ctx) error {
	userId, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}

	if err := c.conversationService.DeleteConversation(ctx.UserContext(), userId, id); err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete conversation", nil))
}

func (c *conversationController) DownloadProposal(ctx *fiber.Ctx) error {
	userId, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}

	dl, err := c.conversationService.DownloadProposal(ctx.UserContext(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, dl.FileName))
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	// fasthttp closes the body once it has been written
	return ctx.SendStream(dl.Body, int(dl.Size))
}

func (c *conversationController) Diagnose(ctx *fiber.Ctx) error {
	userId, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.DiagnoseConversation(ctx.UserContext(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *conversationController) ProposalStatus(ctx *fiber.Ctx) error {
	userId, id, err := ownerAndID(ctx)
	if err != nil {
		return err
	}

	res, err := c.conversationService.GetProposalStatus(ctx.UserContext(), userId, id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get proposal status", res))
}

func ownerAndID(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, serverutils.NewAppError(fiber.StatusBadRequest, "Invalid conversation id")
	}
	return userId, id, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return serverutils.WrapAppError(fiber.StatusNotFound, "Conversation not found", err)
	case errors.Is(err, service.ErrForbidden):
		return serverutils.WrapAppError(fiber.StatusForbidden, "You do not have access to this conversation", err)
	case errors.Is(err, service.ErrQuestionnaireOpen):
		return serverutils.WrapAppError(fiber.StatusConflict, "Please complete the questionnaire first", err)
	case errors.Is(err, orchestrator.ErrGenerationInProgress):
		return serverutils.WrapAppError(fiber.StatusConflict, "Your proposal is still being generated, try again shortly", err)
	case errors.Is(err, service.ErrProposalNotReady), errors.Is(err, orchestrator.ErrArtifactUnavailable):
		return serverutils.WrapAppError(fiber.StatusServiceUnavailable, "Proposal not available yet, please retry in a few minutes", err)
	}
	return err
}
