package request

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireside/marketplace-api/internal/handler"
	"github.com/hireside/marketplace-api/internal/middleware"
	"github.com/hireside/marketplace-api/internal/model"
	"github.com/hireside/marketplace-api/internal/service/offer"
	"github.com/hireside/marketplace-api/internal/service/request"
)

type Handler struct {
	service *request.Service
	offers  *offer.Service
}

func NewHandler(service *request.Service, offers *offer.Service) *Handler {
	return &Handler{service: service, offers: offers}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/close", h.CloseRequest)
	}
}

func (h *Handler) CreateRequest(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing actor"})
		return
	}

	var req model.CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": created})
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	serviceRequest, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	offers, err := h.offers.ListByRequest(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"request": serviceRequest,
		"offers":  offers,
	}})
}

func (h *Handler) CloseRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing actor"})
		return
	}

	if err := h.service.Close(c.Request.Context(), id, actor); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "request closed"})
}
