package handlers

import (
	"net/http"
	"strconv"

	"example.com/fieldwork/services/workorders/internal/api/middleware"
	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/services"

	"github.com/gin-gonic/gin"
)

type WorkOrderHandler struct {
	service      *services.WorkOrderService
	publicPrefix string
}

func NewWorkOrderHandler(service *services.WorkOrderService, publicPrefix string) *WorkOrderHandler {
	return &WorkOrderHandler{service: service, publicPrefix: publicPrefix}
}

type workOrderRequest struct {
	Number             string   `json:"work_order_number"`
	StoreID            uint     `json:"store_id"`
	AddressLine        string   `json:"address_line"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	ZipCode            *string  `json:"zip_code"`
	Description        *string  `json:"description"`
	AssignedDispatcher uint     `json:"assigned_dispatcher"`
	NTE                *float64 `json:"nte"`
	ETADate            *string  `json:"eta_date"`
	CurrentStatus      string   `json:"current_status"`
}

func (r workOrderRequest) toInput() services.WorkOrderInput {
	return services.WorkOrderInput{
		Number:             r.Number,
		StoreID:            r.StoreID,
		AddressLine:        r.AddressLine,
		City:               r.City,
		State:              r.State,
		ZipCode:            r.ZipCode,
		Description:        r.Description,
		AssignedDispatcher: r.AssignedDispatcher,
		NTE:                r.NTE,
		ETADate:            r.ETADate,
		Status:             r.CurrentStatus,
	}
}

// pathID parses a positive integer id path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// Create handles the plain creation route. An absent work order number
// is generated server-side.
func (h *WorkOrderHandler) Create(c *gin.Context) {
	h.create(c, true)
}

// CreateAdmin handles the admin creation route, which requires the
// caller to supply the business number.
func (h *WorkOrderHandler) CreateAdmin(c *gin.Context) {
	h.create(c, false)
}

func (h *WorkOrderHandler) create(c *gin.Context, generateNumber bool) {
	var req workOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	order, err := h.service.Create(c.Request.Context(), req.toInput(), generateNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":           "Work order created",
		"work_order_id":     order.ID,
		"work_order_number": order.Number,
		"current_status":    order.CurrentStatus,
	})
}

func (h *WorkOrderHandler) List(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context(), repositories.WorkOrderFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListForDispatcher returns only the caller's own assignments
func (h *WorkOrderHandler) ListForDispatcher(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not logged in"})
		return
	}

	rows, err := h.service.ListForDispatcher(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListFiltered backs the team-leader view: all work orders, narrowed by
// conjunctive query filters.
func (h *WorkOrderHandler) ListFiltered(c *gin.Context) {
	filter := repositories.WorkOrderFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if raw := c.Query("dispatcher_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid dispatcher_id"})
			return
		}
		filter.DispatcherID = uint(id)
	}
	if raw := c.Query("store_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid store_id"})
			return
		}
		filter.StoreID = uint(id)
	}
	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client_id"})
			return
		}
		filter.ClientID = uint(id)
	}

	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *WorkOrderHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.get(c, services.IDKey(id))
}

func (h *WorkOrderHandler) GetByNumber(c *gin.Context) {
	h.get(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) get(c *gin.Context, key services.Key) {
	row, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *WorkOrderHandler) UpdateByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.update(c, services.IDKey(id))
}

func (h *WorkOrderHandler) UpdateByNumber(c *gin.Context) {
	h.update(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) update(c *gin.Context, key services.Key) {
	var req workOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	order, err := h.service.Update(c.Request.Context(), key, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Work order updated",
		"work_order_id":     order.ID,
		"work_order_number": order.Number,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *WorkOrderHandler) GetStatusByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.getStatus(c, services.IDKey(id))
}

func (h *WorkOrderHandler) GetStatusByNumber(c *gin.Context) {
	h.getStatus(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) getStatus(c *gin.Context, key services.Key) {
	row, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"work_order_id":     row.ID,
		"work_order_number": row.Number,
		"current_status":    row.CurrentStatus,
	})
}

func (h *WorkOrderHandler) UpdateStatusByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.updateStatus(c, services.IDKey(id))
}

func (h *WorkOrderHandler) UpdateStatusByNumber(c *gin.Context) {
	h.updateStatus(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) updateStatus(c *gin.Context, key services.Key) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	status, err := h.service.UpdateStatus(c.Request.Context(), key, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"message":        "Status updated",
		"current_status": status,
	}
	if key.ID != 0 {
		body["work_order_id"] = key.ID
	} else {
		body["work_order_number"] = key.Number
	}
	c.JSON(http.StatusOK, body)
}

func (h *WorkOrderHandler) DetailsByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.details(c, services.IDKey(id))
}

func (h *WorkOrderHandler) DetailsByNumber(c *gin.Context) {
	h.details(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) details(c *gin.Context, key services.Key) {
	row, notes, err := h.service.Details(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"work_order": row,
		"notes":      notes,
	})
}

type noteRequest struct {
	Text string `json:"note"`
}

func (h *WorkOrderHandler) AddNoteByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.addNote(c, services.IDKey(id))
}

func (h *WorkOrderHandler) AddNoteByNumber(c *gin.Context) {
	h.addNote(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) addNote(c *gin.Context, key services.Key) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	note, err := h.service.AddNote(c.Request.Context(), key, req.Text, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Note added",
		"note_id": note.ID,
	})
}

func (h *WorkOrderHandler) ListNotesByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.listNotes(c, services.IDKey(id))
}

func (h *WorkOrderHandler) ListNotesByNumber(c *gin.Context) {
	h.listNotes(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) listNotes(c *gin.Context, key services.Key) {
	_, notes, err := h.service.Details(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *WorkOrderHandler) UploadFileByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.uploadFile(c, services.IDKey(id))
}

func (h *WorkOrderHandler) UploadFileByNumber(c *gin.Context) {
	h.uploadFile(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) uploadFile(c *gin.Context, key services.Key) {
	category := c.PostForm("file_type")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing file"})
		return
	}

	attachment, err := h.service.SaveAttachment(c.Request.Context(), key, category, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "File uploaded",
		"file_id":   attachment.ID,
		"file_type": attachment.Category,
		"file_name": attachment.Path,
		"url":       h.publicPrefix + "/" + attachment.Path,
	})
}

func (h *WorkOrderHandler) ListFilesByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.listFiles(c, services.IDKey(id))
}

func (h *WorkOrderHandler) ListFilesByNumber(c *gin.Context) {
	h.listFiles(c, services.NumberKey(c.Param("number")))
}

func (h *WorkOrderHandler) listFiles(c *gin.Context, key services.Key) {
	grouped, err := h.service.ListAttachmentsGrouped(c.Request.Context(), key, h.publicPrefix)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grouped)
}

// Search queries the search projection
func (h *WorkOrderHandler) Search(c *gin.Context) {
	size := 20
	if raw := c.Query("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			size = parsed
		}
	}

	hits, err := h.service.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}
