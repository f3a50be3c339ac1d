package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secureapp/internal/auth"
	"secureapp/internal/service"
)

// Handler wires HTTP routes to the auth service. This layer is presentation
// glue only: it binds request bodies, calls the service, and renders results.
type Handler struct {
	auth   service.AuthService
	logger *logrus.Logger
}

func NewHandler(authSvc service.AuthService, logger *logrus.Logger) *Handler {
	return &Handler{auth: authSvc, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.signUp)
			authGroup.POST("/signin", h.signIn)
			authGroup.POST("/signout", h.signOut)
			authGroup.POST("/reset-password", h.resetPassword)
		}
		api.GET("/me", h.requireAuth, h.me)
		api.PUT("/profile", h.requireAuth, h.updateProfile)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

const userIDKey = "userID"

// requireAuth resolves the bearer token into a user id or aborts with 401.
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tok, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tok) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userID, err := h.auth.VerifyToken(strings.TrimSpace(tok))
	if err != nil {
		h.renderError(c, err)
		c.Abort()
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

type signUpRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.WithField("user_id", session.User.ID).Info("user signed up")
	c.JSON(http.StatusCreated, session)
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) signOut(c *gin.Context) {
	// stateless on the server; the client discards its stored token
	_ = h.auth.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.auth.ResetPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.renderError(c, err)
		return
	}

	// Delivery is out of band; until an email sender is wired up the ticket
	// is surfaced in the server log only, never in the response.
	h.logger.WithField("email", strings.ToLower(strings.TrimSpace(req.Email))).
		Infof("password reset ticket issued: %s", ticket)
	c.JSON(http.StatusOK, gin.H{"ok": "ok"})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.auth.GetUserByID(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString(userIDKey)
	err := h.auth.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	user, err := h.auth.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// renderError maps the closed error taxonomy onto HTTP statuses.
func (h *Handler) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.KindValidation:
			status = http.StatusBadRequest
		case auth.KindDuplicateUser:
			status = http.StatusConflict
		case auth.KindInvalidCredentials, auth.KindTokenInvalid:
			status = http.StatusUnauthorized
		case auth.KindNotFound:
			status = http.StatusNotFound
		case auth.KindServiceUnavailable:
			status = http.StatusServiceUnavailable
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error("auth request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
