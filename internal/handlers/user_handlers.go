package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/models"
	"github.com/01moynul/humanize-golang/internal/store"
)

// --- Registration & Login ---

// CredentialsInput is the body of both register and login.
type CredentialsInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a user with an empty credit balance.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, "Failed to hash password", err)
		return
	}

	// 3. --- Save to Database ---
	user, err := h.Store.CreateUser(c.Request.Context(), strings.TrimSpace(input.Email), password.Hash)
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to create user", err)
		return
	}

	h.Logger.Info("user registered", zap.Int64("user", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully. Choose a plan to get credits.",
		"user":    user,
	})
}

// Login checks the credentials and returns a signed token.
func (h *Handlers) Login(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Find User ---
	// Unknown email and wrong password get the same answer.
	user, err := h.Store.UserByEmail(c.Request.Context(), strings.TrimSpace(input.Email))
	if isNotFound(err) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to look up user", err)
		return
	}

	// 2. --- Check Password ---
	password := models.Password{Hash: user.PasswordHash}
	ok, err := password.Matches(input.Password)
	if err != nil {
		h.serverError(c, "Failed to check password", err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 3. --- Issue Token ---
	token, sess, err := h.Auth.GenerateToken(user.ID)
	if err != nil {
		h.serverError(c, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"sessionId": sess.SessionID,
		"user":      user,
	})
}

// GetAccount returns the caller's credit balance and plan.
func (h *Handlers) GetAccount(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	acct, err := h.Store.Account(c.Request.Context(), userID)
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to load account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":   acct,
		"charLimit": activeLimit(acct, h.Plans.Get(acct.Plan)),
	})
}
