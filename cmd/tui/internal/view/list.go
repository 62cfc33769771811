package view

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateRecord
	listStateConfirm
)

type recordForm struct {
	item        *budget.Item
	amount      string
	description string
	proofPath   string
	proceed     bool
	warning     *budget.OverspendWarning
}

// ListModel shows a grant's budget items with their ledger position and
// records spend against the selected item.
type ListModel struct {
	CommonModel
	ledger  *budget.Service
	grantID uuid.UUID

	state   listState
	table   table.Model
	summary *budget.GrantSummary
	form    *huh.Form
	record  *recordForm

	statusFilterIdx int
	loading         bool
	err             error
	status          string
}

func NewListModel(ledger *budget.Service, grantID uuid.UUID) ListModel {
	columns := []table.Column{
		{Title: "Category", Width: 14},
		{Title: "Description", Width: 36},
		{Title: "Status", Width: 10},
		{Title: "Allocated", Width: 14},
		{Title: "Spent", Width: 14},
		{Title: "Remaining", Width: 14},
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

	return ListModel{
		ledger:  ledger,
		grantID: grantID,
		table:   t,
		loading: true,
	}
}

func (m ListModel) Title() string { return "Budget Items" }

func (m ListModel) ShortHelp() string {
	if m.state != listStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: ledger | t: record spend | x: reconcile | s: status filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

// SelectedItem returns the item under the cursor, if any.
func (m ListModel) SelectedItem() *budget.Item {
	balances := m.visible()

	idx := m.table.Cursor()
	if idx < 0 || idx >= len(balances) {
		return nil
	}

	return balances[idx].Item
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.summary = msg.summary
		m.refreshTable()

		return m, nil

	case checkResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.leaveForm()

			return m, nil
		}

		if msg.warning == nil {
			return m, m.recordCmd()
		}

		m.record.warning = msg.warning
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("proceed").
					Title("This spend exceeds the allocation").
					Description(fmt.Sprintf("Allocated %s, spent would be %s (over by %s). Record anyway?",
						FormatAmount(msg.warning.Allocated),
						FormatAmount(msg.warning.Spent),
						FormatAmount(msg.warning.Over()))).
					Affirmative("Record").
					Negative("Cancel").
					Value(&m.record.proceed),
			),
		).WithWidth(45).WithShowHelp(false)
		m.state = listStateConfirm

		return m, m.form.Init()

	case recordResultMsg:
		m.leaveForm()

		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("Error recording spend: %v", msg.err)
		case msg.result.Warning != nil:
			m.status = warningStyle.Render(fmt.Sprintf("Recorded %s on %q; %s",
				FormatAmount(msg.result.Transaction.Amount), msg.result.Item.Description, msg.result.Warning))
		default:
			m.status = fmt.Sprintf("Recorded %s on %q, now %s",
				FormatAmount(msg.result.Transaction.Amount), msg.result.Item.Description, msg.result.Item.Status)
		}

		return m, m.loadCmd()

	case reconcileResultMsg:
		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("Error: %v", msg.err)
		case msg.changed:
			m.status = fmt.Sprintf("Status of %q corrected to %s", msg.item.Description, msg.item.Status)
		default:
			m.status = fmt.Sprintf("Status of %q is consistent with its ledger", msg.item.Description)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateRecord, listStateConfirm:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % (len(budget.Statuses()) + 1)
			m.refreshTable()

			return m, nil
		case "t":
			return m.enterRecordMode()
		case "x":
			if item := m.SelectedItem(); item != nil {
				return m, m.reconcileCmd(item.ID)
			}

			return m, nil
		case "enter":
			if item := m.SelectedItem(); item != nil {
				return m, func() tea.Msg { return OpenLedgerMsg{Item: item} }
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) enterRecordMode() (tea.Model, tea.Cmd) {
	item := m.SelectedItem()
	if item == nil {
		return m, nil
	}

	m.record = &recordForm{item: item}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&m.record.amount).
				Validate(validateAmount),
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.record.description),
			huh.NewInput().
				Key("proof").
				Title("Proof document").
				Description("Optional path to a receipt or invoice").
				Value(&m.record.proofPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}

					if _, err := os.Stat(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("file not found")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateRecord
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.leaveForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == listStateRecord {
		return m, m.checkCmd()
	}

	if !m.record.proceed {
		m.status = "Spend not recorded"
		m.leaveForm()

		return m, nil
	}

	return m, m.recordCmd()
}

func (m *ListModel) leaveForm() {
	m.state = listStateBrowse
	m.form = nil
	m.record = nil
	m.table.Focus()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading budget items...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Grant %s | [s] Status: %s", m.grantID, activeStyle(m.statusFilterLabel()))
	if m.summary != nil {
		header += fmt.Sprintf("\nAllocated %s | Spent %s | Remaining %s",
			FormatAmount(m.summary.Planned),
			FormatAmount(m.summary.Spent),
			FormatAmount(m.summary.Remaining))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != listStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Record Spend\n\n%s\n\n%s", m.record.item.Description, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m ListModel) statusFilter() *budget.Status {
	if m.statusFilterIdx == 0 {
		return nil
	}

	return &budget.Statuses()[m.statusFilterIdx-1]
}

func (m ListModel) statusFilterLabel() string {
	if s := m.statusFilter(); s != nil {
		return string(*s)
	}

	return "all"
}

func (m ListModel) visible() []budget.ItemBalance {
	if m.summary == nil {
		return nil
	}

	filter := m.statusFilter()
	if filter == nil {
		return m.summary.Items
	}

	var out []budget.ItemBalance

	for _, b := range m.summary.Items {
		if b.Item.Status == *filter {
			out = append(out, b)
		}
	}

	return out
}

func (m *ListModel) refreshTable() {
	balances := m.visible()

	rows := make([]table.Row, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, table.Row{
			string(b.Item.Category),
			b.Item.Description,
			string(b.Item.Status),
			FormatAmount(b.Item.Price),
			FormatAmount(b.Spent),
			FormatAmount(b.Remaining),
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Messages

// OpenLedgerMsg asks for the transaction ledger of an item.
type OpenLedgerMsg struct {
	Item *budget.Item
}

type loadListMsg struct {
	summary *budget.GrantSummary
	err     error
}

func (m ListModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		summary, err := m.ledger.Summary(ctx, m.grantID)

		return loadListMsg{summary: summary, err: err}
	}
}

type checkResultMsg struct {
	warning *budget.OverspendWarning
	err     error
}

func (m ListModel) checkCmd() tea.Cmd {
	itemID := m.record.item.ID
	raw := m.record.amount

	return func() tea.Msg {
		amount, err := ParseAmountInput(raw)
		if err != nil {
			return checkResultMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		warning, err := m.ledger.CheckTransaction(ctx, itemID, amount)

		return checkResultMsg{warning: warning, err: err}
	}
}

type recordResultMsg struct {
	result *budget.RecordResult
	err    error
}

func (m ListModel) recordCmd() tea.Cmd {
	rec := *m.record

	return func() tea.Msg {
		amount, err := ParseAmountInput(rec.amount)
		if err != nil {
			return recordResultMsg{err: err}
		}

		params := budget.RecordParams{
			ItemID:      rec.item.ID,
			Amount:      amount,
			Description: rec.description,
			SubmittedBy: os.Getenv("USER"),
		}

		if path := strings.TrimSpace(rec.proofPath); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return recordResultMsg{err: fmt.Errorf("reading proof: %w", err)}
			}

			params.Proof = &budget.Proof{
				Name:        filepath.Base(path),
				ContentType: mime.TypeByExtension(filepath.Ext(path)),
				Data:        data,
			}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		result, err := m.ledger.RecordTransaction(ctx, params)

		return recordResultMsg{result: result, err: err}
	}
}

type reconcileResultMsg struct {
	item    *budget.Item
	changed bool
	err     error
}

func (m ListModel) reconcileCmd(itemID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		item, changed, err := m.ledger.Reconcile(ctx, itemID)

		return reconcileResultMsg{item: item, changed: changed, err: err}
	}
}
