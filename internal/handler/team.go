package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/server"
	"github.com/scrumtogether/scrumtogether-api/internal/service"
)

// TeamHandler serves the team CRUD endpoints.
type TeamHandler struct {
	service *service.TeamService
}

// NewTeamHandler creates the team handler.
func NewTeamHandler(svc *service.TeamService) *TeamHandler {
	return &TeamHandler{service: svc}
}

// List handles GET /api/v1/teams.
func (h *TeamHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	result, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOKWithMeta(c, result.Teams, &server.Meta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
	})
}

// Get handles GET /api/v1/teams/:id.
func (h *TeamHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	team, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, team)
}

// Create handles POST /api/v1/teams.
func (h *TeamHandler) Create(c *gin.Context) {
	var req service.TeamCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return
	}

	team, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, team)
}

// Update handles PUT /api/v1/teams/:id.
func (h *TeamHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.TeamUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return
	}

	team, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, team)
}

// Delete handles DELETE /api/v1/teams/:id.
func (h *TeamHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}
