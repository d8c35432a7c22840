package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/OMCalendar-backend/internal/apperr"
	"github.com/noteduco342/OMCalendar-backend/internal/cache"
	"github.com/noteduco342/OMCalendar-backend/internal/httpx"
	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
	ledgerService  *service.LedgerService
	messageCache   *cache.MessageCache
}

func NewMessageHandler(messageService *service.MessageService, ledgerService *service.LedgerService, messageCache *cache.MessageCache) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		ledgerService:  ledgerService,
		messageCache:   messageCache,
	}
}

func (h *MessageHandler) Create(c *fiber.Ctx) error {
	var input service.MessageInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	message, err := h.messageService.Create(input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	messages, err := h.messageService.ListAll()
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

func (h *MessageHandler) Get(c *fiber.Ctx) error {
	messageID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	message, err := h.messageService.Get(messageID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(message.ToResponse())
}

// Update changes message fields that cached unseen lists embed, so recipients are invalidated.
func (h *MessageHandler) Update(c *fiber.Ctx) error {
	messageID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var input service.MessageUpdateInput
	if err := bind(c, &input); err != nil {
		return httpx.Fail(c, err)
	}

	message, err := h.messageService.Update(messageID, input)
	if err != nil {
		return httpx.Fail(c, err)
	}
	h.messageCache.InvalidateUnseen(c.Context(), message.RecipientIDs()...)
	return c.JSON(message.ToResponse())
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	messageID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}

	message, err := h.messageService.Get(messageID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.messageService.Delete(messageID); err != nil {
		return httpx.Fail(c, err)
	}
	h.messageCache.InvalidateUnseen(c.Context(), message.RecipientIDs()...)
	return c.SendStatus(fiber.StatusNoContent)
}

// Assign sets ?companyId= when given and adds the recipients listed in the
// optional JSON array body.
func (h *MessageHandler) Assign(c *fiber.Ctx) error {
	messageID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyID, err := httpx.OptionalQueryUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userIDs, err := bindIDs(c)
	if err != nil {
		return httpx.Fail(c, err)
	}

	message, err := h.messageService.AssignUsersAndCompany(messageID, companyID, userIDs)
	if err != nil {
		return httpx.Fail(c, err)
	}
	h.messageCache.InvalidateUnseen(c.Context(), message.RecipientIDs()...)
	return c.JSON(message.ToResponse())
}

// MarkSeen marks message :id seen for ?userId=.
func (h *MessageHandler) MarkSeen(c *fiber.Ctx) error {
	messageID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userID, err := httpx.QueryUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	if err := h.ledgerService.MarkSeen(messageID, userID); err != nil {
		return httpx.Fail(c, err)
	}
	h.messageCache.InvalidateUnseen(c.Context(), userID)
	return c.JSON(models.SeenStatusResponse{MessageID: messageID, UserID: userID, Seen: true})
}

func (h *MessageHandler) SetStatus(c *fiber.Ctx) error {
	messageID, err := httpx.QueryUint(c, "messageId")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userID, err := httpx.QueryUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}
	seen, err := httpx.QueryBool(c, "seen")
	if err != nil {
		return httpx.Fail(c, err)
	}

	if err := h.ledgerService.SetSeen(messageID, userID, seen); err != nil {
		return httpx.Fail(c, err)
	}
	h.messageCache.InvalidateUnseen(c.Context(), userID)
	return c.JSON(models.SeenStatusResponse{MessageID: messageID, UserID: userID, Seen: seen})
}

func (h *MessageHandler) SeenStatus(c *fiber.Ctx) error {
	messageID, err := httpx.QueryUint(c, "messageId")
	if err != nil {
		return httpx.Fail(c, err)
	}
	userID, err := httpx.QueryUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	seen, err := h.ledgerService.IsSeen(messageID, userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.SeenStatusResponse{MessageID: messageID, UserID: userID, Seen: seen})
}

// Unseen serves the user's unseen list, reading through the cache. A seen toggle
// landing between the read and SetUnseen can leave a stale entry until the TTL
// expires.
func (h *MessageHandler) Unseen(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	if cached, ok := h.messageCache.GetUnseen(c.Context(), userID); ok {
		c.Set("X-Cache", "HIT")
		return c.JSON(cached)
	}

	messages, err := h.messageService.ListNotSeenByUser(userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	views := models.MessagesToResponse(messages)
	h.messageCache.SetUnseen(c.Context(), userID, views)
	c.Set("X-Cache", "MISS")
	return c.JSON(views)
}

func (h *MessageHandler) UserCompanyNotSeen(c *fiber.Ctx) error {
	userID, err := httpx.QueryUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}
	companyID, err := httpx.QueryUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.messageService.ListNotSeenByUserForCompany(userID, companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

func (h *MessageHandler) ByPriority(c *fiber.Ctx) error {
	level := c.Query("priorityLevel")
	if level == "" {
		return httpx.BadRequest(c, "missing_priority", "priorityLevel is required")
	}

	messages, err := h.messageService.ListByPriority(level)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

func (h *MessageHandler) BySeen(c *fiber.Ctx) error {
	seen, err := httpx.QueryBool(c, "seen")
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.messageService.ListBySeen(seen)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

// ByDateRange lists messages between ?startDate= and ?endDate= (YYYY-MM-DD), both inclusive.
func (h *MessageHandler) ByDateRange(c *fiber.Ctx) error {
	rawStart, rawEnd := c.Query("startDate"), c.Query("endDate")
	if rawStart == "" || rawEnd == "" {
		return httpx.Fail(c, apperr.InvalidArgument("startDate and endDate are required"))
	}
	start, err := service.ParseDate(rawStart)
	if err != nil {
		return httpx.Fail(c, err)
	}
	end, err := service.ParseDate(rawEnd)
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.messageService.ListByDateRange(&start, &end)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

func (h *MessageHandler) ByUser(c *fiber.Ctx) error {
	userID, err := httpx.ParamUint(c, "userId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.messageService.ListByUser(userID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}

func (h *MessageHandler) ByCompany(c *fiber.Ctx) error {
	companyID, err := httpx.ParamUint(c, "companyId")
	if err != nil {
		return httpx.Fail(c, err)
	}

	messages, err := h.messageService.ListByCompany(companyID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return c.JSON(models.MessagesToResponse(messages))
}
