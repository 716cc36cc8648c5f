// Package tui is the terminal front end. It follows the Elm architecture:
// key presses become messages, Update applies them to the App, and View
// renders the active lifecycle state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/form"
	"seasonal-menu/internal/lifecycle"
	"seasonal-menu/internal/menu"
	"seasonal-menu/internal/notify"
	"seasonal-menu/internal/present"
)

// focus is the form control receiving key presses.
type focus int

const (
	focusLocation focus = iota
	focusSeason
	focusPlaceType
	focusRestriction
	focusPreference
	focusGenerate
	focusCount
)

// outcomeMsg carries a finished outbound call back into Update.
type outcomeMsg struct {
	outcome lifecycle.Outcome
}

// Model is the bubbletea model. It owns one App.
type Model struct {
	ctx   context.Context
	app   *app.App
	flash *notify.Flash

	focus       focus
	location    textinput.Model
	restriction textinput.Model
	preference  textinput.Model
	seasonIdx   int // -1 until chosen
	placeIdx    int

	spinner  spinner.Model
	viewport viewport.Model
	status   *notify.Notification

	width  int
	height int
}

// New builds the model. flash must be the notifier a was built with.
func New(ctx context.Context, a *app.App, flash *notify.Flash) *Model {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 120
		ti.Width = 40
		return ti
	}

	m := &Model{
		ctx:         ctx,
		app:         a,
		flash:       flash,
		location:    newInput("e.g. California"),
		restriction: newInput("e.g. Vegetarian, then enter"),
		preference:  newInput("e.g. Italian, then enter"),
		seasonIdx:   -1,
		placeIdx:    -1,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:    viewport.New(80, 20),
		width:       80,
		height:      24,
	}
	m.location.Focus()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(5, msg.Height-4)
		m.refreshMenu()
		return m, nil

	case outcomeMsg:
		if m.app.Complete(msg.outcome) {
			m.drainNotifications()
			m.refreshMenu()
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if m.app.State().Phase() != lifecycle.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.app.State().(type) {
		case lifecycle.Idle:
			return m.updateForm(msg)
		case lifecycle.Loading:
			if msg.String() == "esc" {
				m.reset()
			}
			return m, nil
		case lifecycle.Failed:
			switch msg.String() {
			case "r", "enter":
				return m, m.retry()
			case "b", "esc":
				m.reset()
			case "q":
				return m, tea.Quit
			}
			return m, nil
		case lifecycle.Success:
			switch msg.String() {
			case "n", "esc":
				m.reset()
				return m, nil
			case "q":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.app.Form()
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch m.focus {
		case focusSeason:
			m.seasonIdx = cycle(m.seasonIdx, delta, len(menu.Seasons))
			_ = f.UpdateField(form.FieldSeason, string(menu.Seasons[m.seasonIdx]))
			return m, nil
		case focusPlaceType:
			m.placeIdx = cycle(m.placeIdx, delta, len(menu.PlaceTypes))
			_ = f.UpdateField(form.FieldPlaceType, string(menu.PlaceTypes[m.placeIdx]))
			return m, nil
		}
	case "enter":
		switch m.focus {
		case focusRestriction:
			if f.AddRestriction(m.restriction.Value()) {
				m.restriction.SetValue("")
			}
			return m, nil
		case focusPreference:
			if f.AddPreference(m.preference.Value()) {
				m.preference.SetValue("")
			}
			return m, nil
		case focusGenerate:
			return m, m.generate()
		default:
			return m, m.setFocus(m.focus + 1)
		}
	case "backspace":
		// Backspace on an empty tag input removes the last tag.
		switch {
		case m.focus == focusRestriction && m.restriction.Value() == "":
			if n := len(f.Request().DietaryRestrictions); n > 0 {
				_ = f.RemoveRestriction(n - 1)
			}
			return m, nil
		case m.focus == focusPreference && m.preference.Value() == "":
			if n := len(f.Request().CuisinePreferences); n > 0 {
				_ = f.RemovePreference(n - 1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusLocation:
		m.location, cmd = m.location.Update(msg)
		_ = f.UpdateField(form.FieldLocation, m.location.Value())
	case focusRestriction:
		m.restriction, cmd = m.restriction.Update(msg)
	case focusPreference:
		m.preference, cmd = m.preference.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(next focus) tea.Cmd {
	m.focus = next
	m.location.Blur()
	m.restriction.Blur()
	m.preference.Blur()
	switch next {
	case focusLocation:
		return m.location.Focus()
	case focusRestriction:
		return m.restriction.Focus()
	case focusPreference:
		return m.preference.Focus()
	}
	return nil
}

func (m *Model) generate() tea.Cmd {
	call, ok, err := m.app.Generate()
	if err != nil || !ok {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.fetch(call))
}

func (m *Model) retry() tea.Cmd {
	call, err := m.app.Retry()
	if err != nil {
		return nil
	}
	m.status = nil
	return tea.Batch(m.spinner.Tick, m.fetch(call))
}

func (m *Model) fetch(call lifecycle.Call) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return outcomeMsg{outcome: a.Fetch(ctx, call)}
	}
}

func (m *Model) reset() {
	m.app.Reset()
	m.location.SetValue("")
	m.restriction.SetValue("")
	m.preference.SetValue("")
	m.seasonIdx, m.placeIdx = -1, -1
	m.status = nil
	m.setFocus(focusLocation)
}

func (m *Model) drainNotifications() {
	if notes := m.flash.Drain(); len(notes) > 0 {
		last := notes[len(notes)-1]
		m.status = &last
	}
}

func (m *Model) refreshMenu() {
	if st, ok := m.app.State().(lifecycle.Success); ok {
		m.viewport.SetContent(renderMenu(present.BuildMenu(st.Request, st.Response), m.viewport.Width))
	}
}

func (m *Model) View() string {
	var body string
	switch st := m.app.State().(type) {
	case lifecycle.Loading:
		body = m.viewLoading()
	case lifecycle.Failed:
		body = m.viewFailed(st)
	case lifecycle.Success:
		body = m.viewport.View() + "\n" + hintStyle.Render("↑/↓ scroll · n "+present.ActionGenerateMore+" · q quit")
	default:
		body = m.viewForm()
	}
	if status := m.viewStatus(); status != "" {
		body = status + "\n\n" + body
	}
	return body
}

func (m *Model) viewForm() string {
	req := m.app.Form().Request()
	label := func(f focus, text string) string {
		if m.focus == f {
			return focusedLabelStyle.Render(text)
		}
		return labelStyle.Render(text)
	}
	choice := func(idx int, options []string, placeholder string) string {
		if idx < 0 {
			return hintStyle.Render("‹ " + placeholder + " ›")
		}
		return "‹ " + options[idx] + " ›"
	}

	seasons := make([]string, len(menu.Seasons))
	for i, s := range menu.Seasons {
		seasons[i] = string(s)
	}
	places := make([]string, len(menu.PlaceTypes))
	for i, p := range menu.PlaceTypes {
		places[i] = string(p)
	}

	button := buttonStyle
	if m.focus == focusGenerate {
		button = focusedButtonStyle
	}
	generate := button.Render(present.ActionGenerate)
	if !m.app.Form().IsValid() {
		generate = button.Foreground(muted).Render(present.ActionGenerate)
	}

	rows := []string{
		titleStyle.Render("🍂 Seasonal Menu Generator"),
		label(focusLocation, "Location") + m.location.View(),
		label(focusSeason, "Season") + choice(m.seasonIdx, seasons, "select a season"),
		label(focusPlaceType, "Establishment") + choice(m.placeIdx, places, "select a place type"),
		"",
		label(focusRestriction, "Restrictions") + renderTags(req.DietaryRestrictions),
		strings.Repeat(" ", 16) + m.restriction.View(),
		label(focusPreference, "Cuisines") + renderTags(req.CuisinePreferences),
		strings.Repeat(" ", 16) + m.preference.View(),
		"",
		generate,
		hintStyle.Render("tab next field · ←/→ choose · enter add tag · backspace remove tag · esc quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) viewLoading() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.spinner.View()+" "+present.TitleLoading),
		present.SubtitleLoading,
		"",
		hintStyle.Render("esc cancel"),
	)
}

func (m *Model) viewFailed(st lifecycle.Failed) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("✗ "+present.TitleFailed),
		"",
		st.Message,
		"",
		hintStyle.Render(fmt.Sprintf("r %s · b %s", present.ActionRetry, present.ActionBackToForm)),
	)
}

func (m *Model) viewStatus() string {
	if m.status == nil {
		return ""
	}
	if m.status.Level == notify.LevelFailure {
		return failureStatusStyle.Render(fmt.Sprintf("✗ %s: %s", m.status.Title, m.status.Detail))
	}
	return successStatusStyle.Render(fmt.Sprintf("✓ %s %s", m.status.Title, m.status.Detail))
}

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return hintStyle.Render("none")
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = tagStyle.Render(t)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderMenu(v present.MenuView, width int) string {
	badges := make([]string, 0, 3)
	for _, b := range v.Badges() {
		badges = append(badges, badgeStyle.Render(b))
	}

	sections := []string{
		titleStyle.Render("Your Seasonal Menu"),
		lipgloss.JoinHorizontal(lipgloss.Top, badges...),
		"",
	}
	for _, day := range v.Days {
		lines := []string{lipgloss.NewStyle().Bold(true).Render(day.Name)}
		for _, meal := range day.Meals {
			lines = append(lines,
				fmt.Sprintf("%s %s %s", meal.Icon, meal.Label, hintStyle.Render(meal.Hours)),
				"  "+lipgloss.NewStyle().Bold(true).Render(meal.Name),
			)
			if meal.Description != "" {
				lines = append(lines, "  "+meal.Description)
			}
			if len(meal.Ingredients) > 0 {
				lines = append(lines, "  "+renderTags(meal.Ingredients))
			}
		}
		sections = append(sections, dayCardStyle.Width(max(20, width-2)).Render(strings.Join(lines, "\n")))
	}
	sections = append(sections, fmt.Sprintf("%d Total Meals · %d Menu Days · %s", v.TotalMeals, v.DayCount, v.SeasonalFocus))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// cycle moves idx by delta through n options. From "none" (-1) it lands on
// the first or last option.
func cycle(idx, delta, n int) int {
	if idx < 0 {
		if delta < 0 {
			return n - 1
		}
		return 0
	}
	return (idx + delta + n) % n
}
