package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

// SessionCookie carries the refresh token.
const SessionCookie = "dpp_session"

const sessionCookiePath = "/api/auth"

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

func (ah *AuthHandler) setSessionCookie(c *gin.Context, sess *services.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.RefreshToken,
		Path:     sessionCookiePath,
		Expires:  sess.RefreshExpiresAt,
		MaxAge:   int(time.Until(sess.RefreshExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   ah.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ah *AuthHandler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     sessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ah.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	sess, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	ah.setSessionCookie(c, sess)
	response.RespondOK(c, sess)
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	cand, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"candidate_id": cand.ID, "status": cand.Status})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		response.RespondError(c, http.StatusUnauthorized, "session_expired", errMissingSession)
		return
	}
	sess, err := ah.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		ah.clearSessionCookie(c)
		response.RespondErr(c, err)
		return
	}
	ah.setSessionCookie(c, sess)
	response.RespondOK(c, sess)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(SessionCookie)
	if token != "" {
		if err := ah.authService.Logout(c.Request.Context(), token); err != nil {
			response.RespondErr(c, err)
			return
		}
	}
	ah.clearSessionCookie(c)
	response.RespondOK(c, gin.H{"ok": true})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, user)
}

func (ah *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := ah.authService.ChangePassword(c.Request.Context(), req); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

var errMissingSession = errors.New("session cookie is missing")
