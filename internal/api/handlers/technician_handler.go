package handlers

import (
	"net/http"

	"example.com/fieldwork/services/workorders/internal/services"

	"github.com/gin-gonic/gin"
)

type TechnicianHandler struct {
	service *services.TechnicianService
}

func NewTechnicianHandler(service *services.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{service: service}
}

type technicianRequest struct {
	FullName    string  `json:"full_name"`
	Trade       *string `json:"trade"`
	Phone       *string `json:"phone"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PaymentInfo *string `json:"payment_info"`
}

func (r technicianRequest) toInput() services.TechnicianInput {
	return services.TechnicianInput{
		FullName:    r.FullName,
		Trade:       r.Trade,
		Phone:       r.Phone,
		City:        r.City,
		State:       r.State,
		PaymentInfo: r.PaymentInfo,
	}
}

func (h *TechnicianHandler) List(c *gin.Context) {
	technicians, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, technicians)
}

func (h *TechnicianHandler) Create(c *gin.Context) {
	var req technicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	technician, err := h.service.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Technician created",
		"technician_id": technician.ID,
	})
}

func (h *TechnicianHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req technicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req.toInput()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Technician updated"})
}
