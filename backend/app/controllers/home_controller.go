package controllers

import "net/http"

const articleListPath = "/Article/List"

type HomeController struct{}

func NewHomeController() *HomeController { return &HomeController{} }

// Index sends visitors of / and /Article to the article list.
func (c *HomeController) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, articleListPath, http.StatusFound)
}
