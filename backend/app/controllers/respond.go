package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"blog-system/backend/app/middleware"
	"blog-system/backend/app/models"
	"blog-system/backend/app/services"
	"blog-system/backend/app/views"
	"blog-system/backend/global"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// principalFrom returns nil for anonymous requests.
func principalFrom(r *http.Request) *services.Principal {
	c := middleware.GetClaims(r.Context())
	if c == nil {
		return nil
	}
	return &services.Principal{ID: c.UserID, Username: c.Username, Role: c.Role}
}

func pageFor(r *http.Request, title string, data any) views.Page {
	p := views.Page{Title: title, Data: data}
	if pr := principalFrom(r); pr != nil {
		p.User = pr.Username
		p.IsAdmin = pr.HasRole(models.RoleAdmin)
	}
	return p
}

func render(rnd *views.Renderer, w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	if err := rnd.Render(w, status, page, pageFor(r, title, data)); err != nil {
		global.Logger.Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderStatus answers with an error page or a JSON error, depending on what
// the client accepts.
func renderStatus(rnd *views.Renderer, w http.ResponseWriter, r *http.Request, status int, msg string) {
	if middleware.WantsJSON(r) || rnd == nil {
		writeJSONError(w, status, msg)
		return
	}
	render(rnd, w, r, status, views.PageError, http.StatusText(status), views.ErrorView{Status: status, Message: msg})
}

// parseID accepts positive decimal ids only.
func parseID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func routeID(r *http.Request) (uint, bool) {
	return parseID(mux.Vars(r)["id"])
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// safeReturnURL only lets local absolute paths through.
func safeReturnURL(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}
