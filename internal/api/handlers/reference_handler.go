package handlers

import (
	"net/http"
	"strconv"

	"example.com/fieldwork/services/workorders/internal/services"

	"github.com/gin-gonic/gin"
)

type ReferenceHandler struct {
	service *services.ReferenceService
}

func NewReferenceHandler(service *services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

func (h *ReferenceHandler) ListClients(c *gin.Context) {
	clients, err := h.service.ListClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ReferenceHandler) GetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	client, err := h.service.GetClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ReferenceHandler) ListClientStores(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stores, err := h.service.ListStores(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *ReferenceHandler) ListStores(c *gin.Context) {
	var clientID uint
	if raw := c.Query("client_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client_id"})
			return
		}
		clientID = uint(parsed)
	}

	stores, err := h.service.ListStores(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *ReferenceHandler) GetStore(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	store, err := h.service.GetStore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

func (h *ReferenceHandler) ListDispatchers(c *gin.Context) {
	dispatchers, err := h.service.ListDispatchers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatchers)
}
