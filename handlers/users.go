package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"venue-manager/auth"
	"venue-manager/models"
)

func (a *API) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := a.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		a.fail(c, "User", err)
		return
	}
	a.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// register creates a worker account. Owners promote accounts afterwards.
func (a *API) register(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.fail(c, "User", err)
		return
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Role:         models.RoleWorker,
		IsActive:     true,
	}
	if err := a.store.CreateUser(c.Request.Context(), user); err != nil {
		a.fail(c, "User", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *API) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (a *API) listUsers(c *gin.Context) {
	users, err := a.store.ListUsers(c.Request.Context())
	if err != nil {
		a.fail(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *API) updateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := a.store.GetUser(ctx, id)
	if err != nil {
		a.fail(c, "User", err)
		return
	}

	self := id == currentUser(c).ID
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			badRequest(c, "invalid role")
			return
		}
		if self && *req.Role != user.Role {
			badRequest(c, "Cannot change your own role")
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if self && !*req.IsActive {
			badRequest(c, "Cannot deactivate yourself")
			return
		}
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			badRequest(c, err.Error())
			return
		}
		if user.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
			a.fail(c, "User", err)
			return
		}
	}

	if err := a.store.UpdateUser(ctx, user); err != nil {
		a.fail(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) deleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id == currentUser(c).ID {
		badRequest(c, "Cannot delete yourself")
		return
	}
	if err := a.store.DeleteUser(c.Request.Context(), id); err != nil {
		a.fail(c, "User", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
