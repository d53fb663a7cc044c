package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/api/dto"
	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

// UsersHandler exposes signup, login and logout for browsers and API clients.
type UsersHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{auth: authService, logger: logger}
}

// LoginPage handles GET /login.
func (h *UsersHandler) LoginPage(c *fiber.Ctx) error {
	return RenderPage(c, http.StatusOK, PageLogin, fiber.Map{"error": ""})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	info, err := h.auth.Login(c.UserContext(), req.Input())
	if err != nil {
		return h.renderAuthError(c, PageLogin, err, map[string]string{"email": req.Email})
	}

	if err := h.establish(c, *info); err != nil {
		return err
	}
	return c.Redirect("/dashboard")
}

// SignupPage handles GET /signup.
func (h *UsersHandler) SignupPage(c *fiber.Ctx) error {
	return RenderPage(c, http.StatusOK, PageSignup, fiber.Map{"error": ""})
}

// Signup handles POST /signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	res, err := h.auth.Signup(c.UserContext(), req.Input())
	if err != nil {
		return h.renderAuthError(c, PageSignup, err, req.Old())
	}

	h.logger.Info("user signed up", zap.String("user_id", res.User.ID))
	if err := h.establish(c, res.Session); err != nil {
		return err
	}
	return c.Redirect("/dashboard")
}

// Logout handles GET and POST /logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if sess := auth.SessionFromContext(c); sess != nil {
		if err := h.auth.Logout(sess); err != nil {
			h.logger.Warn("session destroy failed", zap.Error(err))
		}
	}
	return c.Redirect("/")
}

// APISignup handles POST /api/auth/signup.
func (h *UsersHandler) APISignup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.Signup(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusCreated, res.Session)
}

// APILogin handles POST /api/auth/login.
func (h *UsersHandler) APILogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	info, err := h.auth.Login(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusOK, *info)
}

func (h *UsersHandler) respondWithToken(c *fiber.Ctx, status int, info domain.SessionInfo) error {
	token, exp, err := h.auth.IssueToken(info)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.UserFromSession(info),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// establish starts a fresh session id for the logged in user.
func (h *UsersHandler) establish(c *fiber.Ctx, info domain.SessionInfo) error {
	sess := auth.SessionFromContext(c)
	if sess == nil {
		return apperrors.NewInternalError(nil)
	}
	if err := sess.Regenerate(); err != nil {
		return apperrors.NewInternalError(err)
	}
	auth.Establish(sess, info)
	return nil
}

// renderAuthError re-renders the form for user-correctable failures and hands
// everything else to the error middleware.
func (h *UsersHandler) renderAuthError(c *fiber.Ctx, page string, err error, old map[string]string) error {
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodeValidationFailed, apperrors.CodeInvalidCredentials, apperrors.CodeEmailTaken:
	default:
		return err
	}
	return RenderPage(c, de.HTTPStatus, page, fiber.Map{
		"error":  de.Message,
		"errors": apperrors.FieldErrors(err),
		"old":    old,
	})
}
