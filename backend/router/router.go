package router

import (
	"net/http"

	"blog-system/backend/app/controllers"
	"blog-system/backend/app/middleware"

	"github.com/gorilla/mux"
)

// Routes bundles everything the router dispatches to.
type Routes struct {
	HTTP     *controllers.HTTPController
	Home     *controllers.HomeController
	Articles *controllers.ArticleController
	Auth     *controllers.AuthController

	Mw      *middleware.Auth
	Limiter *middleware.RateLimiter
	Metrics *middleware.Metrics

	ImagePrefix string
	Images      http.Handler
}

// NewRouter wires the site. Paths are matched case-sensitively.
func NewRouter(rt Routes) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(rt.HTTP.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(rt.HTTP.MethodNotAllowed)
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
	}
	r.Use(rt.Mw.Authenticate)

	auth := rt.Mw.RequireAuthFunc
	limit := func(h http.HandlerFunc) http.Handler {
		if rt.Limiter == nil {
			return h
		}
		return rt.Limiter.Limit(h)
	}

	// public
	r.HandleFunc("/", rt.Home.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", rt.HTTP.Health).Methods(http.MethodGet)
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics.Handler()).Methods(http.MethodGet)
	}
	if rt.Images != nil {
		r.PathPrefix(rt.ImagePrefix + "/").Handler(rt.Images).Methods(http.MethodGet, http.MethodHead)
	}

	// articles
	r.HandleFunc("/Article", rt.Home.Index).Methods(http.MethodGet)
	r.HandleFunc("/Article/List", rt.Articles.List).Methods(http.MethodGet)
	r.HandleFunc("/Article/IFeelLucky", rt.Articles.IFeelLucky).Methods(http.MethodGet)
	r.HandleFunc("/Article/Details", rt.Articles.Details).Methods(http.MethodGet)
	r.HandleFunc("/Article/Details/{id}", rt.Articles.Details).Methods(http.MethodGet)
	r.Handle("/Article/AllArticles", auth(rt.Articles.AllArticles)).Methods(http.MethodGet)
	r.Handle("/Article/Create", auth(rt.Articles.CreateForm)).Methods(http.MethodGet)
	r.Handle("/Article/Create", auth(rt.Articles.Create)).Methods(http.MethodPost)
	r.Handle("/Article/Edit", auth(rt.Articles.EditForm)).Methods(http.MethodGet)
	r.Handle("/Article/Edit/{id}", auth(rt.Articles.EditForm)).Methods(http.MethodGet)
	r.Handle("/Article/Edit", auth(rt.Articles.Edit)).Methods(http.MethodPost)
	r.Handle("/Article/Delete", auth(rt.Articles.DeleteForm)).Methods(http.MethodGet)
	r.Handle("/Article/Delete/{id}", auth(rt.Articles.DeleteForm)).Methods(http.MethodGet)
	r.Handle("/Article/Delete/{id}", auth(rt.Articles.Delete)).Methods(http.MethodPost)

	// account
	r.HandleFunc("/Account/Login", rt.Auth.LoginForm).Methods(http.MethodGet)
	r.Handle("/Account/Login", limit(rt.Auth.Login)).Methods(http.MethodPost)
	r.Handle("/Account/Register", limit(rt.Auth.Register)).Methods(http.MethodPost)
	r.HandleFunc("/Account/Logout", rt.Auth.Logout).Methods(http.MethodPost)

	return middleware.Logging(r)
}
