package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"civix-be/config"
	"civix-be/middlewares"
	"civix-be/models"
	"civix-be/store"
	authUtils "civix-be/utils"
)

// AuthController handles registration, login, and account self-service.
type AuthController struct {
	users  store.UserStore
	tokens *authUtils.TokenService
	cfg    config.Config
	log    *zap.Logger
}

func NewAuthController(users store.UserStore, tokens *authUtils.TokenService, cfg config.Config, log *zap.Logger) *AuthController {
	return &AuthController{users: users, tokens: tokens, cfg: cfg, log: log}
}

// Register creates an account and returns a short-lived token.
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string      `json:"name" binding:"required,max=50"`
		Username string      `json:"username" binding:"required,max=30"`
		Email    string      `json:"email" binding:"required,email"`
		Phone    string      `json:"phone"`
		Location string      `json:"location" binding:"required,max=200"`
		Password string      `json:"password" binding:"required,min=6"`
		Role     models.Role `json:"role"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))

	if msg := ac.checkSignupDomain(role, email); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	user := models.User{
		Name:      strings.TrimSpace(input.Name),
		Username:  username,
		Email:     email,
		Phone:     strings.TrimSpace(input.Phone),
		Password:  input.Password,
		Role:      role,
		Location:  strings.TrimSpace(input.Location),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := user.HashPassword(); err != nil {
		ac.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := ac.users.Create(c.Request.Context(), &user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case errors.Is(err, store.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		default:
			ac.log.Error("create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	token, err := ac.tokens.Issue(&user, authUtils.RegisterTokenTTL)
	if err != nil {
		ac.log.Error("issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created",
		"token":   token,
		"user":    user,
	})
}

// checkSignupDomain enforces the configured email-domain policy for
// privileged roles. Empty config disables the check.
func (ac *AuthController) checkSignupDomain(role models.Role, email string) string {
	switch role {
	case models.RoleAdmin:
		if ac.cfg.AdminEmailDomain != "" && !strings.HasSuffix(email, ac.cfg.AdminEmailDomain) {
			return "Admin registration requires a " + ac.cfg.AdminEmailDomain + " email"
		}
	case models.RoleVolunteer:
		if ac.cfg.VolunteerEmailDomain != "" && !strings.HasSuffix(email, ac.cfg.VolunteerEmailDomain) {
			return "Volunteer registration requires a " + ac.cfg.VolunteerEmailDomain + " email"
		}
	}
	return ""
}

// Login authenticates by email or username and returns a week-long token.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Identifier string      `json:"identifier" binding:"required"`
		Password   string      `json:"password" binding:"required"`
		Role       models.Role `json:"role"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identifier := strings.ToLower(strings.TrimSpace(input.Identifier))

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = ac.users.FindByEmail(c.Request.Context(), identifier)
	} else {
		user, err = ac.users.FindByUsername(c.Request.Context(), identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if input.Role != "" && user.Role != input.Role {
		c.JSON(http.StatusForbidden, gin.H{"error": "Selected role does not match account"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := ac.tokens.Issue(user, authUtils.LoginTokenTTL)
	if err != nil {
		ac.log.Error("issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me returns the authenticated user's account.
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := ac.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates the caller's own profile fields.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Name     *string `json:"name,omitempty"`
		Phone    *string `json:"phone,omitempty"`
		Location *string `json:"location,omitempty"`
		Image    *string `json:"image,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name == nil && input.Phone == nil && input.Location == nil && input.Image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided"})
		return
	}

	patch := store.ProfilePatch{
		Name:     trimmed(input.Name),
		Phone:    trimmed(input.Phone),
		Location: trimmed(input.Location),
		Image:    input.Image,
	}

	user, err := ac.users.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// ChangePassword verifies the current password before replacing it.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if !user.ComparePassword(input.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password incorrect"})
		return
	}

	replacement := models.User{Password: input.NewPassword}
	if err := replacement.HashPassword(); err != nil {
		ac.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := ac.users.UpdatePassword(c.Request.Context(), userID, replacement.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("update password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// DeleteAccount removes the caller's own account.
func (ac *AuthController) DeleteAccount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := ac.users.Delete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		ac.log.Error("delete user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// callerID reads the authenticated user's ID set by the auth middleware.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get(middlewares.UserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}
	hex, ok := raw.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerRole reads the authenticated user's role set by the auth middleware.
func callerRole(c *gin.Context) models.Role {
	raw, exists := c.Get(middlewares.UserRoleKey)
	if !exists {
		return ""
	}
	role, _ := raw.(models.Role)
	return role
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
