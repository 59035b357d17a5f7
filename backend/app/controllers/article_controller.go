package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"blog-system/backend/app/dto"
	"blog-system/backend/app/middleware"
	"blog-system/backend/app/models"
	"blog-system/backend/app/services"
	"blog-system/backend/app/storage"
	"blog-system/backend/app/views"
	"blog-system/backend/global"
)

type ArticleController struct {
	Articles       *services.ArticleService
	Views          *views.Renderer
	MaxUploadBytes int64
}

func NewArticleController(articles *services.ArticleService, rnd *views.Renderer, maxUploadBytes int64) *ArticleController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &ArticleController{Articles: articles, Views: rnd, MaxUploadBytes: maxUploadBytes}
}

// List GET /Article/List
func (c *ArticleController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.Articles.List(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.renderList(w, r, "Articles", list)
}

// AllArticles GET /Article/AllArticles
func (c *ArticleController) AllArticles(w http.ResponseWriter, r *http.Request) {
	list, err := c.Articles.MyArticles(r.Context(), principalFrom(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.renderList(w, r, "My articles", list)
}

// IFeelLucky GET /Article/IFeelLucky
func (c *ArticleController) IFeelLucky(w http.ResponseWriter, r *http.Request) {
	a, err := c.Articles.Random(r.Context())
	if errors.Is(err, services.ErrNotFound) {
		renderStatus(c.Views, w, r, http.StatusNotFound, "There are no articles yet. Be the first to write one!")
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.renderArticle(w, r, views.PageDetails, a)
}

// Details GET /Article/Details/{id}
func (c *ArticleController) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "A valid article id is required.")
		return
	}
	a, err := c.Articles.Details(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.renderArticle(w, r, views.PageDetails, a)
}

// CreateForm GET /Article/Create
func (c *ArticleController) CreateForm(w http.ResponseWriter, r *http.Request) {
	render(c.Views, w, r, http.StatusOK, views.PageCreate, "New article", views.FormView{})
}

// Create POST /Article/Create
func (c *ArticleController) Create(w http.ResponseWriter, r *http.Request) {
	form, upload, cleanup, err := c.readArticle(w, r)
	if err != nil {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	defer cleanup()

	p := principalFrom(r)
	a, err := c.Articles.Create(r.Context(), p, services.ArticleInput{Title: form.Title, Content: form.Content}, upload)
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.invalid(w, r, views.PageCreate, "New article", form, verrs)
		return
	case err != nil:
		c.fail(w, r, err)
		return
	}
	global.Logger.Info().Uint64("id", uint64(a.ID)).Str("user", p.Username).Msg("article created")
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusCreated, dto.NewArticleResponse(a, true))
		return
	}
	http.Redirect(w, r, articleListPath, http.StatusSeeOther)
}

// EditForm GET /Article/Edit/{id}
func (c *ArticleController) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "A valid article id is required.")
		return
	}
	m, err := c.Articles.LoadForEdit(r.Context(), principalFrom(r), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	form := dto.ArticleForm{ID: m.ID, Title: m.Title, Content: m.Content}
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, form)
		return
	}
	render(c.Views, w, r, http.StatusOK, views.PageEdit, "Edit article", views.FormView{Form: form})
}

// Edit POST /Article/Edit. The id travels in the body.
func (c *ArticleController) Edit(w http.ResponseWriter, r *http.Request) {
	form, _, cleanup, err := c.readArticle(w, r)
	if err != nil {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	defer cleanup()
	if form.ID == 0 {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "A valid article id is required.")
		return
	}

	p := principalFrom(r)
	a, err := c.Articles.Edit(r.Context(), p, services.EditModel{ID: form.ID, Title: form.Title, Content: form.Content})
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.invalid(w, r, views.PageEdit, "Edit article", form, verrs)
		return
	case err != nil:
		c.fail(w, r, err)
		return
	}
	global.Logger.Info().Uint64("id", uint64(a.ID)).Str("user", p.Username).Msg("article updated")
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.NewArticleResponse(a, true))
		return
	}
	http.Redirect(w, r, articleListPath, http.StatusSeeOther)
}

// DeleteForm GET /Article/Delete/{id}
func (c *ArticleController) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "A valid article id is required.")
		return
	}
	a, err := c.Articles.LoadForDelete(r.Context(), principalFrom(r), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.renderArticle(w, r, views.PageDelete, a)
}

// Delete POST /Article/Delete/{id}
func (c *ArticleController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(r)
	if !ok {
		renderStatus(c.Views, w, r, http.StatusBadRequest, "A valid article id is required.")
		return
	}
	p := principalFrom(r)
	if err := c.Articles.Delete(r.Context(), p, id); err != nil {
		c.fail(w, r, err)
		return
	}
	global.Logger.Info().Uint64("id", uint64(id)).Str("user", p.Username).Msg("article deleted")
	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, articleListPath, http.StatusSeeOther)
}

// readArticle accepts JSON, urlencoded and multipart bodies. cleanup releases
// temporary multipart files.
func (c *ArticleController) readArticle(w http.ResponseWriter, r *http.Request) (dto.ArticleForm, *storage.Upload, func(), error) {
	var form dto.ArticleForm
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes+1<<20)

	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return form, nil, noop, err
		}
		return form, nil, noop, nil
	}

	if err := r.ParseMultipartForm(c.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form, nil, noop, err
	}
	form.Title = r.FormValue("title")
	form.Content = r.FormValue("content")
	if id, ok := parseID(r.FormValue("id")); ok {
		form.ID = id
	}

	cleanup := noop
	if r.MultipartForm != nil {
		cleanup = func() { _ = r.MultipartForm.RemoveAll() }
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return form, nil, cleanup, nil
	}
	prev := cleanup
	cleanup = func() {
		_ = file.Close()
		prev()
	}
	if header.Size == 0 {
		return form, nil, cleanup, nil
	}
	return form, &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, cleanup, nil
}

func (c *ArticleController) invalid(w http.ResponseWriter, r *http.Request, page, title string, form dto.ArticleForm, verrs services.ValidationErrors) {
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: verrs})
		return
	}
	render(c.Views, w, r, http.StatusUnprocessableEntity, page, title, views.FormView{Form: form, Errors: verrs})
}

func (c *ArticleController) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		renderStatus(c.Views, w, r, http.StatusNotFound, "The article could not be found.")
	case errors.Is(err, services.ErrForbidden):
		renderStatus(c.Views, w, r, http.StatusForbidden, "You are not allowed to change this article.")
	default:
		global.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("article request failed")
		renderStatus(c.Views, w, r, http.StatusInternalServerError, "Something went wrong.")
	}
}

func (c *ArticleController) renderList(w http.ResponseWriter, r *http.Request, heading string, list []models.Article) {
	p := principalFrom(r)
	out := make([]dto.ArticleResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewArticleResponse(&list[i], c.Articles.CanEdit(p, &list[i])))
	}
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.ArticleListResponse{Articles: out})
		return
	}
	render(c.Views, w, r, http.StatusOK, views.PageList, heading, views.ListView{Heading: heading, Articles: out})
}

func (c *ArticleController) renderArticle(w http.ResponseWriter, r *http.Request, page string, a *models.Article) {
	resp := dto.NewArticleResponse(a, c.Articles.CanEdit(principalFrom(r), a))
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	render(c.Views, w, r, http.StatusOK, page, a.Title, resp)
}
