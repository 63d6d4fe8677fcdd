package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reganan/icestore/bindings"
	"github.com/reganan/icestore/model"
	"github.com/reganan/icestore/store"
)

// changedMsg tells the UI that a store it renders has changed.
type changedMsg struct{}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	darkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0"))
	loadingLabel = mutedStyle.Render("loading...")
)

type ui struct {
	ctx   context.Context
	store *store.Store
	prefs *bindings.Store

	count   int
	todos   []string
	status  map[string]model.EffectStatus
	dark    bool
	saved   int
	lastErr error
}

func newUI(ctx context.Context, s *store.Store, prefs *bindings.Store) ui {
	m := ui{ctx: ctx, store: s, prefs: prefs}
	return m.refresh()
}

// subscribe calls notify whenever any rendered store changes. The returned
// function removes every subscription.
func subscribe(ctx context.Context, s *store.Store, prefs *bindings.Store, notify func()) (func(), error) {
	var detach []func()
	for _, ns := range s.Namespaces() {
		inst, err := s.Instance(ctx, ns)
		if err != nil {
			for _, d := range detach {
				d()
			}
			return nil, err
		}
		stateToken := inst.SubscribeState(func(model.State) { notify() })
		statusToken := inst.SubscribeEffectStatus(func(model.EffectStatus) { notify() })
		detach = append(detach, func() {
			inst.Unsubscribe(stateToken)
			inst.Unsubscribe(statusToken)
		})
	}
	_, detachPrefs := prefs.UseStore(func(bindings.Bindings) { notify() })
	detach = append(detach, detachPrefs)

	return func() {
		for _, d := range detach {
			d()
		}
	}, nil
}

func (m ui) Init() tea.Cmd { return nil }

func (m ui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		return m.refresh(), nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "+":
			m.lastErr = m.call(counterNS, "increment")
		case "-":
			m.lastErr = m.call(counterNS, "decrement")
		case "r":
			m.lastErr = m.call(counterNS, "reset")
		case "l":
			m.lastErr = m.call(counterNS, "incrementLater")
		case "s":
			m.saved++
			m.lastErr = m.call(todosNS, "save", fmt.Sprintf("todo #%d", m.saved))
		case "c":
			m.lastErr = m.call(todosNS, "clear")
		case "t":
			_, m.lastErr = m.prefs.Call(m.ctx, "toggleTheme")
		}
		return m.refresh(), nil
	}
	return m, nil
}

func (m ui) call(ns, action string, args ...any) error {
	actions, err := m.store.UseModelAction(m.ctx, ns)
	if err != nil {
		return err
	}
	return actions.Call(action, args...)
}

func (m ui) refresh() ui {
	m.status = make(map[string]model.EffectStatus, 2)
	for _, ns := range m.store.Namespaces() {
		status, err := m.store.UseModelEffectState(m.ctx, ns)
		if err != nil {
			m.lastErr = err
			return m
		}
		m.status[ns] = status
	}

	if counter, err := m.store.UseModelState(m.ctx, counterNS); err == nil {
		m.count, _ = model.Value[int](counter, "count")
	}
	if todos, err := m.store.UseModelState(m.ctx, todosNS); err == nil {
		m.todos, _ = model.Value[[]string](todos, "items")
	}
	m.dark, _ = bindings.Get[bool](m.prefs, "dark")
	return m
}

func (m ui) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("icecounter"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "count: %d %s\n", m.count, m.effectLine(counterNS, "incrementLater"))
	fmt.Fprintf(&b, "todos: %d %s\n", len(m.todos), m.effectLine(todosNS, "save"))
	for _, item := range m.todos {
		fmt.Fprintf(&b, "  - %s\n", item)
	}
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("error: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("+/- count  r reset  l later  s save  c clear  t theme  q quit"))

	if m.dark {
		return darkStyle.Render(b.String())
	}
	return b.String()
}

func (m ui) effectLine(ns, effect string) string {
	st := m.status[ns][effect]
	switch {
	case st.IsLoading:
		return loadingLabel
	case st.Error != nil:
		return errorStyle.Render(st.Error.Error())
	default:
		return ""
	}
}
