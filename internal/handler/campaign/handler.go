package campaign

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/handler"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/middleware"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/campaign"
)

type Handler struct {
	service        *campaign.Service
	requireManager gin.HandlerFunc
}

func NewHandler(service *campaign.Service, requireManager gin.HandlerFunc) *Handler {
	return &Handler{service: service, requireManager: requireManager}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	campaigns := r.Group("/campaigns")
	{
		campaigns.POST("", h.CreateCampaign)
		campaigns.GET("", h.ListCampaigns)
		campaigns.GET("/:id", h.GetCampaign)
		campaigns.PUT("/:id", h.UpdateCampaign)
		campaigns.DELETE("/:id", h.requireManager, h.DeleteCampaign)

		// State changes and execution are manager-level actions.
		campaigns.POST("/:id/activate", h.requireManager, h.ActivateCampaign)
		campaigns.POST("/:id/pause", h.requireManager, h.PauseCampaign)
		campaigns.POST("/:id/resume", h.requireManager, h.ResumeCampaign)
		campaigns.POST("/:id/execute", h.requireManager, h.ExecuteCampaign)
	}
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var req model.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.CurrentClaims(c)
	created, err := h.service.Create(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListCampaigns(c *gin.Context) {
	var filters model.CampaignFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	filters.Normalize()

	campaigns, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.ListResponse{
		Items: campaigns,
		Total: total,
		Skip:  filters.Skip,
		Limit: filters.Limit,
	}))
}

func (h *Handler) UpdateCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteCampaign(c *gin.Context) {
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

func (h *Handler) ActivateCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	updated, err := h.service.Activate(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) PauseCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	updated, err := h.service.Pause(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ResumeCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	updated, err := h.service.Resume(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ExecuteCampaign(c *gin.Context) {
	id, ok := handler.ParseIDParam(c)
	if !ok {
		return
	}

	var req model.ExecuteCampaignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	claims := middleware.CurrentClaims(c)
	event, err := h.service.Execute(c.Request.Context(), id, &req, claims.UserID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(event))
}
