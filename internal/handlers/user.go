package handlers

import (
	"net/http"

	"github.com/go-authgate/idgate/internal/models"
	"github.com/go-authgate/idgate/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the administrative update path
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(us *services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func actorID(c *gin.Context) string {
	if user := models.GetUserFromContext(c); user != nil {
		return user.ID
	}
	return ""
}

// UpdateRole handles PATCH /auth/admin/users/:id/role
//
//	@Summary		Change a user's role
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string											true	"User ID"
//	@Param			request	body		handlers.updateRoleRequest						true	"New role"
//	@Success		200		{object}	object{message=string,user=models.UserResponse}	"Role updated"
//	@Failure		400		{object}	object{error=string}							"Unknown role"
//	@Failure		403		{object}	object{error=string}							"Administrator privileges required"
//	@Failure		404		{object}	object{error=string}							"User not found"
//	@Router			/auth/admin/users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "role is required")
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), actorID(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated",
		"user":    user.ToResponse(),
	})
}

// Deactivate handles DELETE /auth/admin/users/:id
//
//	@Summary		Deactivate a user
//	@Description	Soft-delete the account; outstanding tokens stop passing verification
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string					true	"User ID"
//	@Success		200	{object}	object{message=string}	"User deactivated"
//	@Failure		403	{object}	object{error=string}	"Administrator privileges required"
//	@Failure		404	{object}	object{error=string}	"User not found"
//	@Router			/auth/admin/users/{id} [delete]
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.userService.Deactivate(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}
