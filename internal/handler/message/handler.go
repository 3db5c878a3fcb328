package message

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/handler"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/middleware"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/message"
)

type Handler struct {
	service        *message.Service
	requireManager gin.HandlerFunc
}

func NewHandler(service *message.Service, requireManager gin.HandlerFunc) *Handler {
	return &Handler{service: service, requireManager: requireManager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	{
		messages.POST("/generate", h.GenerateMessage)
		messages.POST("/generate/batch", h.BatchGenerateMessages)
		messages.POST("", h.CreateMessage)
		messages.GET("", h.ListMessages)
		messages.GET("/:id", h.GetMessage)
		// Partial edit, unlike the full-replace PUT on contacts.
		messages.PATCH("/:id", h.UpdateMessage)
		messages.DELETE("/:id", h.requireManager, h.DeleteMessage)

		// Approval decisions and sending are manager-level actions.
		messages.POST("/:id/approve", h.requireManager, h.ApproveMessage)
		messages.POST("/:id/reject", h.requireManager, h.RejectMessage)
		messages.POST("/:id/send", h.requireManager, h.SendMessage)
		messages.GET("/:id/history", h.GetMessageHistory)
	}
}

func (h *Handler) GenerateMessage(c *gin.Context) {
	var req model.GenerateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Generate(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) BatchGenerateMessages(c *gin.Context) {
	var req model.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.CurrentClaims(c)
	msgs, err := h.service.BatchGenerate(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msgs))
}

func (h *Handler) CreateMessage(c *gin.Context) {
	var req model.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Create(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) GetMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	msg, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) ListMessages(c *gin.Context) {
	var filters model.MessageFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	filters.Normalize()

	msgs, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{
		Items: msgs,
		Total: total,
		Skip:  filters.Skip,
		Limit: filters.Limit,
	}))
}

func (h *Handler) UpdateMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Update(c.Request.Context(), id, &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) ApproveMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Approve(c.Request.Context(), id, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) RejectMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	var req model.RejectMessageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Reject(c.Request.Context(), id, req.Reason, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.CurrentClaims(c)
	msg, err := h.service.Send(c.Request.Context(), id, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msg))
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetMessageHistory(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}
