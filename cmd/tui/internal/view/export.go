package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/export"
)

type exportState int

const (
	exportStatePath exportState = iota
	exportStateExporting
	exportStateResult
)

type exportForm struct {
	path string
}

type ExportModel struct {
	CommonModel
	exportService *export.Service
	ledger        *budget.Service
	grantID       uuid.UUID

	state   exportState
	err     error
	form    *huh.Form
	input   *exportForm
	spinner spinner.Model
	archive string
	report  string
}

func NewExportModel(svc *export.Service, ledger *budget.Service, grantID uuid.UUID) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService: svc,
		ledger:        ledger,
		grantID:       grantID,
		input:         &exportForm{path: "./exports"},
		spinner:       s,
	}
	m.form = m.buildPathForm()

	return m
}

func (m ExportModel) Title() string { return "Export Grant" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.input.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.archive = result.archive
		m.report = result.report

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.input.path).
				Validate(validateRequired("output path")),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Exporting ledger and downloading proofs...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := successStyle.Bold(true).Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Archive: "+m.archive,
			"",
			m.report,
		),
	)
}

type exportResultMsg struct {
	archive string
	report  string
	err     error
}

const exportTimeout = 2 * time.Minute

// runExportCmd downloads the proofs into a per-run directory under path and
// packs them with the report into a zip next to it.
func (m ExportModel) runExportCmd(path string) tea.Cmd {
	grantID := m.grantID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		name := fmt.Sprintf("grant_%s_%s", grantID.String()[:8], time.Now().Format("2006-01-02"))
		dir := filepath.Join(path, name)

		items, err := m.exportService.Export(ctx, grantID, dir)
		if err != nil {
			return exportResultMsg{err: err}
		}

		summary, err := m.ledger.Summary(ctx, grantID)
		if err != nil {
			return exportResultMsg{err: err}
		}

		report := export.GenerateReport(summary, items)
		archive := dir + ".zip"

		if err := writeArchiveFile(archive, report, items); err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{archive: archive, report: report}
	}
}

func writeArchiveFile(path, report string, items []export.Item) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return export.WriteArchive(f, report, items)
}
