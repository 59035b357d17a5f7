package controllers

import (
	"context"
	"net/http"
	"time"

	"blog-system/backend/app/views"
	"blog-system/backend/global"

	"gorm.io/gorm"
)

type HTTPController struct {
	DB    *gorm.DB
	Views *views.Renderer
}

func NewHTTPController(db *gorm.DB, rnd *views.Renderer) *HTTPController {
	return &HTTPController{DB: db, Views: rnd}
}

// Health reports 503 when the database does not answer a ping.
func (c *HTTPController) Health(w http.ResponseWriter, r *http.Request) {
	if c.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := c.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			global.Logger.Error().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *HTTPController) NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(c.Views, w, r, http.StatusNotFound, "The page you requested does not exist.")
}

func (c *HTTPController) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	renderStatus(c.Views, w, r, http.StatusMethodNotAllowed, "Method not allowed.")
}
