package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jchyng/todo-list/internal/auth"
	"github.com/jchyng/todo-list/internal/dto"
	"github.com/jchyng/todo-list/internal/service"
	"github.com/jchyng/todo-list/internal/utils"
)

const sessionCookieName = "session_id"

// AuthHandler handles login, register, logout and account deletion.
type AuthHandler struct {
	sessions *auth.Store
	userSvc  *service.UserService
	todoSvc  *service.TodoService
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions *auth.Store, userSvc *service.UserService, todoSvc *service.TodoService) *AuthHandler {
	return &AuthHandler{sessions: sessions, userSvc: userSvc, todoSvc: todoSvc}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.Envelope{data=dto.UserResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      401   {object}  dto.Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: username and password are required"))
		return
	}
	user, err := h.userSvc.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.Err("invalid username or password"))
			return
		}
		log.Printf("[AUTH_LOGIN] %v", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}
	sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[AUTH_LOGIN] session: %v", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}
	c.SetCookie(sessionCookieName, sessionID, 24*60*60, "/", "", false, true) // 24h, httpOnly
	c.JSON(http.StatusOK, dto.OK(dto.UserResponse{ID: user.ID, Username: user.Username}))
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  dto.Envelope{data=dto.UserResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      409   {object}  dto.Envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Err("validation failed: username and password are required"))
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, dto.Err("validation failed: username and password are required"))
			return
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, dto.Err("username already taken"))
			return
		}
		log.Printf("[AUTH_REGISTER] %v", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}
	sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[AUTH_REGISTER] session: %v", err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}
	c.SetCookie(sessionCookieName, sessionID, 24*60*60, "/", "", false, true) // 24h, httpOnly
	c.JSON(http.StatusCreated, dto.OK(dto.UserResponse{ID: user.ID, Username: user.Username}))
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(sessionCookieName)
	if err == nil && sessionID != "" {
		_ = h.sessions.Delete(c.Request.Context(), sessionID)
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// DeleteAccount godoc
// @Summary      Delete the account and all its data
// @Description  Soft-deletes every todo the user owns, then removes the
// @Description  user and the current session.
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.Envelope{data=dto.PurgeResponse}
// @Failure      401  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /auth/account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	count, err := h.todoSvc.Purge(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[ACCOUNT_DELETE] owner=%s purge: %v", utils.MaskOwnerID(userID), err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}
	if err := h.userSvc.DeleteAccount(c.Request.Context(), userID); err != nil {
		log.Printf("[ACCOUNT_DELETE] owner=%s user: %v", utils.MaskOwnerID(userID), err)
		c.JSON(http.StatusInternalServerError, dto.Err(dto.MsgInternal))
		return
	}

	if sessionID, err := c.Cookie(sessionCookieName); err == nil && sessionID != "" {
		_ = h.sessions.Delete(c.Request.Context(), sessionID)
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, dto.OKMessage(dto.PurgeResponse{DeletedCount: count}, "account deleted"))
}
