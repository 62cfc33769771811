package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

type reviewState int

const (
	reviewStateBrowse reviewState = iota
	reviewStateEdit
)

// ReviewConfirmedMsg carries the reviewed rows to commit.
type ReviewConfirmedMsg struct {
	Rows []budget.ParsedRow
}

type ReviewCancelledMsg struct{}

type rowEdit struct {
	index       int
	original    string
	description string
	section     string
	total       string
	learn       bool
}

// ReviewModel lets the user fix parsed rows before anything is written.
type ReviewModel struct {
	CommonModel
	matchingService *matching.Service
	matcher         *category.Matcher

	state  reviewState
	rows   []budget.ParsedRow
	table  table.Model
	form   *huh.Form
	edit   *rowEdit
	status string
}

func NewReviewModel(matchSvc *matching.Service, matcher *category.Matcher, rows []budget.ParsedRow, suggested int) ReviewModel {
	columns := []table.Column{
		{Title: "Row", Width: 5},
		{Title: "Description", Width: 40},
		{Title: "Section", Width: 24},
		{Title: "Category", Width: 14},
		{Title: "Total", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := ReviewModel{
		matchingService: matchSvc,
		matcher:         matcher,
		rows:            rows,
		table:           t,
	}

	if suggested > 0 {
		m.status = fmt.Sprintf("%d rows renamed from learned descriptions", suggested)
	}

	m.refreshTable()

	return m
}

func (m ReviewModel) Title() string { return "Review Budget Items" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Enter: import | e: edit | d: drop row | Esc: cancel"
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case learnResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not remember description: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Will suggest %q for similar rows", msg.description)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	if m.state == reviewStateEdit {
		return m.updateEdit(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, func() tea.Msg { return ReviewCancelledMsg{} }
		case "enter":
			if len(m.rows) == 0 {
				m.status = "Nothing left to import"
				return m, nil
			}

			rows := append([]budget.ParsedRow(nil), m.rows...)

			return m, func() tea.Msg { return ReviewConfirmedMsg{Rows: rows} }
		case "d", "delete":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.rows) {
				m.status = fmt.Sprintf("Dropped %q", m.rows[idx].Description)
				m.rows = append(m.rows[:idx], m.rows[idx+1:]...)
				m.refreshTable()
			}

			return m, nil
		case "e":
			return m.enterEditMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReviewModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return m, nil
	}

	row := m.rows[idx]
	m.edit = &rowEdit{
		index:       idx,
		original:    row.Description,
		description: row.Description,
		section:     row.Category,
		total:       FormatAmount(row.Total),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.edit.description).
				Validate(validateRequired("description")),
			huh.NewInput().
				Key("section").
				Title("Section").
				Description("Mapped to a category on import").
				Value(&m.edit.section),
			huh.NewInput().
				Key("total").
				Title("Total").
				Value(&m.edit.total).
				Validate(validateAmount),
			huh.NewConfirm().
				Key("learn").
				Title("Suggest this description for similar rows?").
				Value(&m.edit.learn),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReviewModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.leaveEditMode()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	edit := m.edit
	total, _ := ParseAmountInput(edit.total)

	m.rows[edit.index].Description = edit.description
	m.rows[edit.index].Category = edit.section
	m.rows[edit.index].Total = total
	m.refreshTable()
	m.leaveEditMode()

	if edit.learn && edit.description != edit.original {
		return m, m.learnCmd(matching.Mapping{
			Pattern:     edit.original,
			Description: edit.description,
			Category:    edit.section,
		})
	}

	return m, nil
}

func (m *ReviewModel) leaveEditMode() {
	m.state = reviewStateBrowse
	m.form = nil
	m.edit = nil
	m.table.Focus()
}

func (m ReviewModel) View() string {
	var planned int64
	for _, r := range m.rows {
		planned += r.Total
	}

	header := fmt.Sprintf("%d items | planned %s", len(m.rows), FormatAmount(planned))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == reviewStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Edit Row\n\nOriginal: %s\n\n%s", m.edit.original, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m *ReviewModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			strconv.Itoa(r.SourceRow),
			r.Description,
			r.Category,
			string(m.matcher.Match(r.Category)),
			FormatAmount(r.Total),
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

type learnResultMsg struct {
	description string
	err         error
}

func (m ReviewModel) learnCmd(mapping matching.Mapping) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := m.matchingService.Learn(ctx, mapping)

		return learnResultMsg{description: mapping.Description, err: err}
	}
}
