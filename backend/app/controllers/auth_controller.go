package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"blog-system/backend/app/dto"
	jwtutil "blog-system/backend/app/jwt"
	"blog-system/backend/app/middleware"
	"blog-system/backend/app/models"
	"blog-system/backend/app/services"
	"blog-system/backend/app/views"
	"blog-system/backend/global"
)

type AuthController struct {
	Users     *services.UserService
	Signer    *jwtutil.Signer
	Blacklist *services.TokenBlacklist
	Views     *views.Renderer
}

func NewAuthController(users *services.UserService, signer *jwtutil.Signer, blacklist *services.TokenBlacklist, rnd *views.Renderer) *AuthController {
	return &AuthController{Users: users, Signer: signer, Blacklist: blacklist, Views: rnd}
}

// LoginForm GET /Account/Login
func (c *AuthController) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(c.Views, w, r, http.StatusOK, views.PageLogin, "Log in", views.LoginView{
		ReturnURL: safeReturnURL(r.URL.Query().Get("returnUrl"), ""),
	})
}

// Login POST /Account/Login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(r)
	if err != nil {
		c.loginFailed(w, r, http.StatusBadRequest, "invalid payload", req)
		return
	}
	if req.Username == "" || req.Password == "" {
		c.loginFailed(w, r, http.StatusBadRequest, "missing credentials", req)
		return
	}
	u, err := c.Users.ValidateCredentials(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		global.Logger.Warn().Str("user", req.Username).Str("ip", middleware.ClientIP(r)).Msg("login failed")
		c.loginFailed(w, r, http.StatusUnauthorized, "invalid credentials", req)
		return
	}
	if err != nil {
		global.Logger.Error().Err(err).Msg("login: credential lookup failed")
		renderStatus(c.Views, w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.signIn(w, r, u, http.StatusOK, safeReturnURL(req.ReturnURL, articleListPath))
}

// Register POST /Account/Register. A successful browser registration is
// signed in right away.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			renderStatus(c.Views, w, r, http.StatusBadRequest, "invalid payload")
			return
		}
	} else {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	u, err := c.Users.Register(r.Context(), req.Username, req.Password)
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		if middleware.WantsJSON(r) {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: verrs})
			return
		}
		c.renderLogin(w, r, http.StatusUnprocessableEntity, views.LoginView{Error: joinMessages(verrs)})
		return
	case errors.Is(err, services.ErrUsernameTaken):
		if middleware.WantsJSON(r) {
			writeJSONError(w, http.StatusConflict, "username already taken")
			return
		}
		c.renderLogin(w, r, http.StatusConflict, views.LoginView{Error: "That username is already taken."})
		return
	case err != nil:
		global.Logger.Error().Err(err).Msg("register failed")
		renderStatus(c.Views, w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	global.Logger.Info().Str("user", u.Username).Msg("user registered")
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusCreated, dto.UserResponse{ID: u.ID, Username: u.Username, Role: u.Role})
		return
	}
	c.signIn(w, r, u, http.StatusCreated, articleListPath)
}

// Logout POST /Account/Logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.GetClaims(r.Context()); claims != nil && claims.ExpiresAt != nil {
		if err := c.Blacklist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			global.Logger.Error().Err(err).Str("user", claims.Username).Msg("revoke token failed")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, articleListPath, http.StatusSeeOther)
}

func (c *AuthController) signIn(w http.ResponseWriter, r *http.Request, u *models.User, jsonStatus int, redirect string) {
	token, err := c.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		global.Logger.Error().Err(err).Msg("sign token failed")
		renderStatus(c.Views, w, r, http.StatusInternalServerError, "token error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.Signer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	if middleware.WantsJSON(r) {
		writeJSON(w, jsonStatus, dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(c.Signer.TTL().Seconds()),
		})
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (c *AuthController) loginFailed(w http.ResponseWriter, r *http.Request, status int, msg string, req dto.LoginRequest) {
	if middleware.WantsJSON(r) {
		writeJSONError(w, status, msg)
		return
	}
	c.renderLogin(w, r, status, views.LoginView{
		Username:  req.Username,
		ReturnURL: safeReturnURL(req.ReturnURL, ""),
		Error:     "Invalid login attempt.",
	})
}

func (c *AuthController) renderLogin(w http.ResponseWriter, r *http.Request, status int, v views.LoginView) {
	render(c.Views, w, r, status, views.PageLogin, "Log in", v)
}

func readLogin(r *http.Request) (dto.LoginRequest, error) {
	var req dto.LoginRequest
	if isJSONBody(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	req.ReturnURL = r.PostFormValue("returnUrl")
	if req.ReturnURL == "" {
		req.ReturnURL = r.URL.Query().Get("returnUrl")
	}
	return req, nil
}

func joinMessages(verrs services.ValidationErrors) string {
	return strings.TrimPrefix(verrs.Error(), "invalid input: ")
}
