package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

// txItem wraps a transaction to implement list.Item.
type txItem struct {
	tx *budget.Transaction
}

func (i txItem) Title() string {
	desc := i.tx.Description
	if desc == "" {
		desc = faintStyle.Render("(no description)")
	}

	return fmt.Sprintf("%s  %s  %s", i.tx.CreatedAt.Format("2006-01-02"), FormatAmount(i.tx.Amount), desc)
}

func (i txItem) Description() string {
	var parts []string

	if i.tx.SubmittedBy != "" {
		parts = append(parts, "by "+i.tx.SubmittedBy)
	}

	if i.tx.ProofRef != "" {
		parts = append(parts, "proof attached")
	}

	return strings.Join(parts, " | ")
}

func (i txItem) FilterValue() string {
	return i.tx.Description
}

type txDelegate struct{}

func (d txDelegate) Height() int                             { return 2 }
func (d txDelegate) Spacing() int                            { return 0 }
func (d txDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d txDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(txItem)
	if !ok {
		return
	}

	title := i.Title()
	desc := faintStyle.Render("  " + i.Description())

	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Render("> " + title)
	} else {
		title = "  " + title
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// LedgerModel lists the transactions recorded against one budget item.
type LedgerModel struct {
	CommonModel
	ledger *budget.Service
	item   *budget.Item

	list    list.Model
	spent   int64
	loading bool
	err     error
	status  string
}

func NewLedgerModel(ledger *budget.Service, item *budget.Item) LedgerModel {
	l := list.New(nil, txDelegate{}, 80, 20)
	l.Title = item.Description
	l.SetShowHelp(false)

	return LedgerModel{
		ledger:  ledger,
		item:    item,
		list:    l,
		loading: true,
	}
}

func (m LedgerModel) Title() string { return "Item Ledger" }

func (m LedgerModel) ShortHelp() string {
	return "Esc: back | p: proof link | /: filter"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.item = msg.item
		m.spent = 0

		items := make([]list.Item, len(msg.txs))
		for i, tx := range msg.txs {
			items[i] = txItem{tx: tx}
			m.spent += tx.Amount
		}

		return m, m.list.SetItems(items)

	case proofURLMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Proof unavailable: %v", msg.err))
			return m, nil
		}

		m.status = "Proof: " + msg.url

		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}

			return m, Back
		case "p":
			if i, ok := m.list.SelectedItem().(txItem); ok {
				return m, m.proofCmd(i.tx)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("%s | %s | allocated %s | spent %s | remaining %s",
		m.item.Category,
		statusStyle(m.item.Status),
		FormatAmount(m.item.Price),
		FormatAmount(m.spent),
		FormatAmount(m.item.Remaining(m.spent)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.list.View(),
	)

	if m.status != "" {
		content += "\n" + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

// Messages

type loadLedgerMsg struct {
	item *budget.Item
	txs  []*budget.Transaction
	err  error
}

func (m LedgerModel) loadCmd() tea.Cmd {
	itemID := m.item.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		item, err := m.ledger.GetItem(ctx, itemID)
		if err != nil {
			return loadLedgerMsg{err: err}
		}

		txs, err := m.ledger.ListTransactions(ctx, budget.TransactionFilter{BudgetItemID: &itemID})

		return loadLedgerMsg{item: item, txs: txs, err: err}
	}
}

type proofURLMsg struct {
	url string
	err error
}

func (m LedgerModel) proofCmd(tx *budget.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		url, err := m.ledger.ProofURL(ctx, tx.ID)

		return proofURLMsg{url: url, err: err}
	}
}
