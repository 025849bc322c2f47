package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/server"
	"github.com/scrumtogether/scrumtogether-api/internal/server/middleware"
	"github.com/scrumtogether/scrumtogether-api/internal/service"
)

// UserHandler serves the account CRUD endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	result, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOKWithMeta(c, result.Users, &server.Meta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
	})
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, user)
}

// Update handles PUT /api/v1/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req service.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return
	}

	user, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, user)
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// Restore handles POST /api/v1/users/:id/restore.
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.service.Restore(c.Request.Context(), actor, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, user)
}

// pathID parses the :id path parameter, responding with a 400 when it is not
// a positive integer.
func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		server.RespondWithError(c, apperrors.Validation("Invalid ID"))
		return 0, false
	}
	return uint(id), true
}

// requirePrincipal fetches the authenticated user set by the auth middleware.
func requirePrincipal(c *gin.Context) (*model.User, bool) {
	actor, ok := middleware.Principal(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Authentication required"))
		return nil, false
	}
	return actor, true
}
