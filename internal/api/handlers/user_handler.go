// server/internal/api/handlers/user_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"equipment-requests-api-server/internal/api/middleware"
	"equipment-requests-api-server/internal/auth"
	"equipment-requests-api-server/internal/database"
	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/session"
	"equipment-requests-api-server/internal/sharepoint"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountRepository is where local login accounts live.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
}

// SiteDirectory answers identity questions about the list store's site.
type SiteDirectory interface {
	IsGroupMember(ctx context.Context, group string) (bool, error)
	SiteUser(ctx context.Context, userID int) (sharepoint.User, error)
}

type UserHandler struct {
	Users      AccountRepository
	Tokens     *auth.TokenIssuer
	Directory  func(sess models.SessionContext) SiteDirectory
	Registry   *session.Registry
	AdminGroup string
	SiteURL    string
	Logger     *zap.Logger
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	Name             string `json:"name"`
	SharePointUserID int    `json:"sharePointUserId" binding:"required,min=1"`
}

// Login checks the password, resolves the role against the admin group and
// issues a JWT carrying both.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if user.Status != models.UserActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	sess := models.SessionContext{UserID: user.SharePointUserID, DisplayName: user.Name, SiteURL: h.SiteURL}
	sess.Role = session.ResolveRole(c.Request.Context(), h.Directory(sess), h.AdminGroup, h.Logger)

	token, err := h.Tokens.Generate(user, sess.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
		"role":  sess.Role,
	})
}

// Logout drops the caller's view state. The JWT itself stays valid until it expires.
func (h *UserHandler) Logout(c *gin.Context) {
	sess, _ := middleware.Session(c)
	h.Registry.End(sess.UserID)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Me(c *gin.Context) {
	sess, _ := middleware.Session(c)
	c.JSON(http.StatusOK, sess)
}

func (h *UserHandler) GetFilters(c *gin.Context) {
	sess, _ := middleware.Session(c)
	c.JSON(http.StatusOK, h.Registry.Filters(sess.UserID))
}

// UpdateFilters merges the given fields into the caller's filters.
func (h *UserHandler) UpdateFilters(c *gin.Context) {
	sess, _ := middleware.Session(c)

	var patch session.FiltersPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Registry.SetFilters(sess.UserID, patch))
}

// CreateUser adds a local account for an existing site user.
func (h *UserHandler) CreateUser(c *gin.Context) {
	sess, _ := middleware.Session(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	siteUser, err := h.Directory(sess).SiteUser(c.Request.Context(), req.SharePointUserID)
	if sharepoint.IsNotFound(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown SharePoint user"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	name := req.Name
	if name == "" {
		name = siteUser.Title
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := h.Users.Create(c.Request.Context(), models.User{
		Email:            req.Email,
		Name:             name,
		Password:         hashed,
		SharePointUserID: req.SharePointUserID,
		Status:           models.UserActive,
	})
	if errors.Is(err, database.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}
