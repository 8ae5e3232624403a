package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dikkadev/condatui/pkg/environment"
	"github.com/dikkadev/condatui/pkg/packages"
	"github.com/dikkadev/condatui/pkg/storage"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

// Title is shown in the header and as the terminal window title
const Title = "conda TUI"

const (
	headerHeight  = 1
	minTreeWidth  = 20
	paneFrameSize = 2
)

// PackageLister lists the packages installed in an environment
type PackageLister interface {
	List(ctx context.Context, env environment.Environment) ([]*packages.Package, error)
}

type contentKind int

const (
	contentLogo contentKind = iota
	contentLoading
	contentPackages
	contentError
)

type pane int

const (
	treePane pane = iota
	contentPane
)

type mountMsg struct{}

type packagesLoadedMsg struct {
	env  environment.Environment
	pkgs []*packages.Package
	err  error
}

// Model is the application shell: an environment tree on the left and the
// logo or a package table on the right
type Model struct {
	ctx    context.Context
	keys   keyMap
	help   help.Model
	styles styles

	tree    *EnvironmentTree
	lister  PackageLister
	logo    *LogoLoader
	content viewport.Model

	kind     contentKind
	selected environment.Environment
	pkgs     []*packages.Package
	err      error
	focus    pane

	width, height int
	treeWidth     int
}

// NewModel wires the shell. ctx bounds every package listing.
func NewModel(ctx context.Context, catalog environment.Lister, lister PackageLister, logo *LogoLoader) *Model {
	if logo == nil {
		logo = DefaultLogoLoader()
	}

	m := &Model{
		ctx:     ctx,
		keys:    defaultKeyMap(),
		help:    help.New(),
		styles:  newStyles(),
		tree:    NewEnvironmentTree(catalog),
		lister:  lister,
		logo:    logo,
		content: viewport.New(0, 0),
		kind:    contentLogo,
	}
	m.setFocus(treePane)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(Title),
		func() tea.Msg { return mountMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case mountMsg:
		m.tree.Mount()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case EnvironmentSelectedMsg:
		return m, m.selectEnvironment(msg)

	case packagesLoadedMsg:
		m.applyPackages(msg)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Home):
		m.showLogo()
		return nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == treePane {
			m.setFocus(contentPane)
		} else {
			m.setFocus(treePane)
		}
		return nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return nil
	}

	if m.focus == treePane {
		return m.tree.Update(msg)
	}
	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.X < m.treeWidth+paneFrameSize {
		// rows start below the header and the pane's top border
		row := msg.Y - headerHeight - 1
		switch {
		case msg.Action == tea.MouseActionMotion:
			m.tree.HoverRow(row)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.setFocus(treePane)
			return m.tree.Click(row)
		}
		return nil
	}

	m.tree.ClearHover()
	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return cmd
}

// selectEnvironment expands the node and starts listing its packages
func (m *Model) selectEnvironment(msg EnvironmentSelectedMsg) tea.Cmd {
	if msg.Env.IsRoot() {
		return nil
	}

	logrus.Infof("Selected environment %s", msg.Env.Path)
	m.selected = msg.Env
	m.tree.Expand(msg.Node)
	m.pkgs, m.err = nil, nil
	m.show(contentLoading)

	ctx, lister, env := m.ctx, m.lister, msg.Env
	return func() tea.Msg {
		pkgs, err := lister.List(ctx, env)
		return packagesLoadedMsg{env: env, pkgs: pkgs, err: err}
	}
}

// applyPackages shows a listing unless the user has moved on since it started
func (m *Model) applyPackages(msg packagesLoadedMsg) {
	if msg.env != m.selected || m.kind != contentLoading {
		logrus.Debugf("Discarding stale listing for %s", msg.env.Path)
		return
	}

	if msg.err != nil {
		logrus.Warnf("Failed to list packages for %s: %v", msg.env.Path, msg.err)
		m.err = msg.err
		m.show(contentError)
		return
	}

	m.pkgs = msg.pkgs
	m.show(contentPackages)
}

func (m *Model) showLogo() {
	m.selected = environment.Root()
	m.pkgs, m.err = nil, nil
	m.show(contentLogo)
}

func (m *Model) show(kind contentKind) {
	m.kind = kind
	m.refreshContent()
	m.content.GotoTop()
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == treePane {
		m.tree.Focus()
	} else {
		m.tree.Blur()
	}
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	m.help.Width = m.width
	footerHeight := lipgloss.Height(m.footerView())
	bodyHeight := max(m.height-headerHeight-footerHeight-paneFrameSize, 1)

	m.treeWidth = max(minTreeWidth, m.width/4) - paneFrameSize
	contentWidth := max(m.width-m.treeWidth-2*paneFrameSize, 1)

	m.tree.SetSize(m.treeWidth, bodyHeight)
	m.content.Width = contentWidth
	m.content.Height = bodyHeight
	m.refreshContent()
}

func (m *Model) refreshContent() {
	m.content.SetContent(m.contentView())
}

func (m *Model) contentView() string {
	switch m.kind {
	case contentLoading:
		return m.styles.message.Render(fmt.Sprintf("Loading packages of %s…", m.selected.Label()))
	case contentPackages:
		return RenderPackageTable(m.pkgs, m.content.Width, m.styles)
	case contentError:
		return m.styles.errorMessage.Render(errorText(m.selected, m.err))
	}

	logo, err := m.logo.Load()
	if err != nil {
		logrus.Errorf("Failed to load logo: %v", err)
		return m.styles.errorMessage.Render(err.Error())
	}
	return lipgloss.PlaceHorizontal(m.content.Width, lipgloss.Center, m.styles.logo.Render(logo))
}

func errorText(env environment.Environment, err error) string {
	switch {
	case errors.Is(err, storage.ErrUnreadableEnvironment):
		return fmt.Sprintf("%s is not a readable conda environment", env.RPath())
	case errors.Is(err, context.Canceled):
		return "Listing was cancelled"
	}
	return fmt.Sprintf("Failed to list packages of %s: %v", env.RPath(), err)
}

func (m *Model) headerView() string {
	title := m.styles.headerTitle.Render(Title)
	info := ""
	if !m.selected.IsRoot() {
		avail := m.width - lipgloss.Width(title) - 4
		info = "  " + m.styles.headerInfo.Render(runewidth.Truncate(m.selected.RPath(), max(avail, 0), "…"))
	}
	return m.styles.header.Width(m.width).MaxHeight(headerHeight).Render(title + info)
}

func (m *Model) footerView() string {
	return m.styles.footer.Render(m.help.View(m.keys))
}

func (m *Model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return m.styles.paneFocused
	}
	return m.styles.pane
}

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	left := m.paneStyle(treePane).
		Width(m.treeWidth).
		Height(m.content.Height).
		Render(m.tree.View())
	right := m.paneStyle(contentPane).
		Width(m.content.Width).
		Height(m.content.Height).
		Render(m.content.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.footerView(),
	)
}
