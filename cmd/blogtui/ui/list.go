package ui

import (
	"context"
	"strconv"
	"strings"

	"blog-system/backend/app/dto"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

type ListModel struct {
	Client   *Client
	Table    table.Model
	Articles []dto.ArticleResponse
	Loading  bool
	Err      error
}

type articlesLoadedMsg struct {
	Articles []dto.ArticleResponse
	Err      error
}

// ArticleSelectedMsg asks the root model to open an article.
type ArticleSelectedMsg struct {
	ID uint
}

func NewListModel(c *Client, height int) ListModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Title", Width: 40},
			{Title: "Author", Width: 16},
			{Title: "Posted", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	t.SetStyles(tableStyles())
	return ListModel{Client: c, Table: t, Loading: true}
}

func tableHeight(h int) int {
	if h-10 < 5 {
		return 5
	}
	return h - 10
}

func (m ListModel) Init() tea.Cmd { return m.fetch() }

func (m ListModel) fetch() tea.Cmd {
	c := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), c.HTTP.Timeout)
		defer cancel()
		list, err := c.List(ctx)
		return articlesLoadedMsg{Articles: list, Err: err}
	}
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case articlesLoadedMsg:
		m.Loading = false
		m.Err = msg.Err
		if msg.Err == nil {
			m.Articles = msg.Articles
			rows := make([]table.Row, 0, len(msg.Articles))
			for _, a := range msg.Articles {
				author := ""
				if a.Author != nil {
					author = a.Author.Username
				}
				rows = append(rows, table.Row{
					strconv.FormatUint(uint64(a.ID), 10),
					a.Title,
					author,
					a.DatePosted.Local().Format("2006-01-02 15:04"),
				})
			}
			m.Table.SetRows(rows)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.Loading = true
			return m, m.fetch()
		case "enter":
			row := m.Table.SelectedRow()
			if len(row) == 0 {
				return m, nil
			}
			id, err := strconv.ParseUint(row[0], 10, 64)
			if err != nil {
				return m, nil
			}
			return m, func() tea.Msg { return ArticleSelectedMsg{ID: uint(id)} }
		}
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Articles") + "\n\n")
	switch {
	case m.Loading && len(m.Articles) == 0:
		b.WriteString("Loading...")
	case len(m.Articles) == 0 && m.Err == nil:
		b.WriteString("No articles yet.")
	default:
		b.WriteString(m.Table.View())
	}
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("enter: open  l: I feel lucky  r: refresh  q: quit"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
