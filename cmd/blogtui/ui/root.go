package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateList state = iota
	stateDetail
)

type RootModel struct {
	State    state
	Client   *Client
	List     ListModel
	Detail   DetailModel
	Quitting bool
	width    int
	height   int
}

func NewRootModel(c *Client) RootModel {
	return RootModel{
		State:  stateList,
		Client: c,
		List:   NewListModel(c, 24),
		Detail: NewDetailModel(80, 24),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.List.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.List.Table.SetHeight(tableHeight(msg.Height))
		m.Detail.Viewport.Width, m.Detail.Viewport.Height = viewportSize(msg.Width, msg.Height)
		if m.Detail.Article != nil {
			m.Detail = m.Detail.SetArticle(m.Detail.Article, m.Detail.Err)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		case "l":
			m.State = stateDetail
			m.Detail = m.Detail.SetArticle(nil, nil)
			return m, fetchLucky(m.Client)
		}

	case ArticleSelectedMsg:
		m.State = stateDetail
		m.Detail = m.Detail.SetArticle(nil, nil)
		return m, fetchArticle(m.Client, msg.ID)

	case articleLoadedMsg:
		m.Detail = m.Detail.SetArticle(msg.Article, msg.Err)
		return m, nil

	case BackToListMsg:
		m.State = stateList
		return m, nil
	}

	var cmd tea.Cmd
	switch m.State {
	case stateList:
		m.List, cmd = m.List.Update(msg)
	case stateDetail:
		m.Detail, cmd = m.Detail.Update(msg)
	}
	return m, cmd
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateDetail:
		return docStyle.Render(m.Detail.View())
	default:
		return docStyle.Render(m.List.View())
	}
}
