package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/auth"
	"github.com/01moynul/humanize-golang/internal/humanize"
	"github.com/01moynul/humanize-golang/internal/middleware"
	"github.com/01moynul/humanize-golang/internal/plans"
	"github.com/01moynul/humanize-golang/internal/store"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store      store.Store
	Controller *humanize.Controller
	Plans      *plans.Catalog
	Auth       *auth.Issuer
	Logger     *zap.Logger
}

// currentUser reads the ids AuthMiddleware put on the context.
func currentUser(c *gin.Context) (int64, string, bool) {
	userID := c.GetInt64(middleware.UserIDKey)
	if userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, "", false
	}
	return userID, c.GetString(middleware.SessionIDKey), true
}

// statusFor maps a workflow error to its HTTP status.
func statusFor(code humanize.Code) int {
	switch code {
	case humanize.CodeValidation:
		return http.StatusBadRequest
	case humanize.CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case humanize.CodeTransport:
		return http.StatusBadGateway
	case humanize.CodeTimedOut:
		return http.StatusGatewayTimeout
	case humanize.CodeInFlight:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.Logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
