package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/civicpulse-backend/internal/domain/complaint"
	"github.com/yungbote/civicpulse-backend/internal/http/response"
	"github.com/yungbote/civicpulse-backend/internal/services"
)

type ComplaintHandler struct {
	complaintService services.ComplaintService
}

func NewComplaintHandler(complaintService services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService}
}

// POST /complaints
func (h *ComplaintHandler) Create(c *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Location    string   `json:"location"`
		Latitude    *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
		Longitude   *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
		PhotoURL    string   `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errString(bindMessage(err)))
		return
	}
	res, err := h.complaintService.Create(c.Request.Context(), services.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /complaints?status=&category=&assigned_to=&limit=&offset=
func (h *ComplaintHandler) List(c *gin.Context) {
	in := services.ListComplaintsInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}
	if v, ok := c.GetQuery("assigned_to"); ok {
		in.AssignedTo = &v
	}
	var err error
	if in.Limit, err = queryInt(c, "limit"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errString("limit must be an integer"))
		return
	}
	if in.Offset, err = queryInt(c, "offset"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errString("offset must be an integer"))
		return
	}
	list, err := h.complaintService.List(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"complaints": list})
}

// GET /complaints/:id
func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	v, err := h.complaintService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"complaint": v})
}

// PATCH /complaints/:id
func (h *ComplaintHandler) Update(c *gin.Context) {
	id, ok := complaintID(c)
	if !ok {
		return
	}
	var req struct {
		Status     *string         `json:"status"`
		AssignedTo json.RawMessage `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errString(bindMessage(err)))
		return
	}
	assignedTo, err := optionalAssignment(req.AssignedTo)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errString("assigned_to must be a string or null"))
		return
	}
	v, err := h.complaintService.Update(c.Request.Context(), id, services.UpdateComplaintInput{
		Status:     req.Status,
		AssignedTo: assignedTo,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"complaint": v})
}

// GET /complaints/stats
func (h *ComplaintHandler) Stats(c *gin.Context) {
	stats, err := h.complaintService.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /departments
func (h *ComplaintHandler) Departments(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"departments": complaint.Departments(),
		"statuses":    complaint.Statuses(),
	})
}

// optionalAssignment returns nil when the field was omitted. An explicit
// null clears the assignment like "unassigned" does.
func optionalAssignment(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if string(raw) == "null" {
		empty := ""
		return &empty, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func complaintID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errString("invalid complaint id"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
