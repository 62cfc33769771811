package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

type grantForm struct {
	id string
}

// GrantModel asks which grant to work on. A blank answer starts a new grant.
type GrantModel struct {
	CommonModel

	form   *huh.Form
	values *grantForm
}

func NewGrantModel(current uuid.UUID) GrantModel {
	values := &grantForm{}
	if current != uuid.Nil {
		values.id = current.String()
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("grant").
				Title("Grant ID").
				Description("Leave blank to start a new grant").
				Placeholder("00000000-0000-0000-0000-000000000000").
				Value(&values.id).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}

					if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("not a valid grant id")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	return GrantModel{form: form, values: values}
}

func (m GrantModel) Title() string { return "Select Grant" }

func (m GrantModel) ShortHelp() string { return "Enter: confirm | Esc: back" }

func (m GrantModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m GrantModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	id := uuid.New()
	if s := strings.TrimSpace(m.values.id); s != "" {
		id = uuid.MustParse(s)
	}

	return m, func() tea.Msg { return GrantSelectedMsg{GrantID: id} }
}

func (m GrantModel) View() string {
	return lipgloss.NewStyle().Padding(1).Render(m.form.View())
}
