package ui

import (
	"context"
	"fmt"
	"strings"

	"blog-system/backend/app/dto"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DetailModel struct {
	Article  *dto.ArticleResponse
	Viewport viewport.Model
	Err      error
}

type articleLoadedMsg struct {
	Article *dto.ArticleResponse
	Err     error
}

// BackToListMsg returns to the article table.
type BackToListMsg struct{}

func NewDetailModel(width, height int) DetailModel {
	vp := viewport.New(viewportSize(width, height))
	vp.Style = lipgloss.NewStyle().PaddingLeft(1)
	return DetailModel{Viewport: vp}
}

func viewportSize(w, h int) (int, int) {
	if w < 20 {
		w = 80
	}
	if h < 10 {
		h = 24
	}
	return w - 4, h - 8
}

func fetchArticle(c *Client, id uint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), c.HTTP.Timeout)
		defer cancel()
		a, err := c.Details(ctx, id)
		return articleLoadedMsg{Article: a, Err: err}
	}
}

func fetchLucky(c *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), c.HTTP.Timeout)
		defer cancel()
		a, err := c.Lucky(ctx)
		return articleLoadedMsg{Article: a, Err: err}
	}
}

func (m DetailModel) SetArticle(a *dto.ArticleResponse, err error) DetailModel {
	m.Article = a
	m.Err = err
	if a != nil {
		m.Viewport.SetContent(renderArticle(a, m.Viewport.Width))
		m.Viewport.GotoTop()
	}
	return m
}

func renderArticle(a *dto.ArticleResponse, width int) string {
	author := "unknown"
	if a.Author != nil {
		author = a.Author.Username
	}
	var b strings.Builder
	b.WriteString(metaStyle.Render(fmt.Sprintf("by %s on %s", author, a.DatePosted.Local().Format("2006-01-02 15:04"))))
	b.WriteString("\n")
	if a.ImagePath != "" {
		b.WriteString(metaStyle.Render("image: " + a.ImagePath))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(a.Content))
	return b.String()
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.Type == tea.KeyEsc || k.String() == "backspace") {
		return m, func() tea.Msg { return BackToListMsg{} }
	}
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m DetailModel) View() string {
	var b strings.Builder
	switch {
	case m.Article != nil:
		b.WriteString(titleStyle.Render(m.Article.Title) + "\n\n")
		b.WriteString(m.Viewport.View())
	case m.Err != nil:
		b.WriteString(titleStyle.Render("Article") + "\n\n")
	default:
		b.WriteString("Loading...")
	}
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("esc: back  up/down: scroll  l: another lucky pick  q: quit"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
