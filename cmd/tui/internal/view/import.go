package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateParsing
	importStateReview
	importStateCommitting
	importStateResult
)

type ImportModel struct {
	CommonModel
	ledger          *budget.Service
	importService   *importer.Service
	matchingService *matching.Service
	grantID         uuid.UUID
	workers         int

	state      importState
	filePicker filepicker.Model
	review     ReviewModel
	bar        progress.Model
	progress   budget.Progress

	result *budget.ImportResult
	status string
	err    error
}

func NewImportModel(ledger *budget.Service, impSvc *importer.Service, matchSvc *matching.Service, grantID uuid.UUID, workers int) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".xlsx", ".csv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		ledger:          ledger,
		importService:   impSvc,
		matchingService: matchSvc,
		grantID:         grantID,
		workers:         workers,
		filePicker:      fp,
		bar:             progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
	}
}

func (m ImportModel) Title() string { return "Import Budget Spreadsheet" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateReview:
		return m.review.ShortHelp()
	case importStateResult:
		return "Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case parseResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.review = NewReviewModel(m.matchingService, m.ledger.Matcher(), msg.rows, msg.suggested)
		m.state = importStateReview

		return m, m.review.Init()

	case ReviewCancelledMsg:
		m.state = importStateFilePick
		return m, m.filePicker.Init()

	case ReviewConfirmedMsg:
		m.state = importStateCommitting
		m.progress = budget.Progress{Total: len(msg.Rows)}
		m.status = ""

		return m, m.commitCmd(msg.Rows)

	case importProgressMsg:
		m.progress = msg.progress
		return m, waitForImport(msg.run)

	case importDoneMsg:
		m.state = importStateResult
		m.result = msg.result
		m.err = msg.err

		switch {
		case msg.result != nil:
			m.status = msg.result.Message()
		case msg.err != nil:
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != importStateReview {
			return m.handleEsc()
		}
	}

	switch m.state {
	case importStateReview:
		newModel, cmd := m.review.Update(msg)
		m.review = newModel.(ReviewModel)

		return m, cmd
	case importStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = importStateParsing
			m.status = fmt.Sprintf("Reading %s...", path)

			return m, m.parseCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateResult:
		m.state = importStateFilePick
		m.err = nil
		m.result = nil
		m.status = ""

		return m, m.filePicker.Init()
	case importStateParsing, importStateCommitting:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Grant %s\nSelect a budget spreadsheet (.xlsx or .csv):\n\n%s", m.grantID, m.filePicker.View()),
		)
	case importStateParsing:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateReview:
		return m.review.View()
	case importStateCommitting:
		return m.viewCommitting()
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewCommitting() string {
	percent := 0.0
	if m.progress.Total > 0 {
		percent = float64(m.progress.Done) / float64(m.progress.Total)
	}

	return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
		"Importing items...\n\n%s\n\n%d of %d attempted, %d imported",
		m.bar.ViewAs(percent), m.progress.Done, m.progress.Total, m.progress.Succeeded,
	))
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.result == nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	var sb strings.Builder

	switch m.result.Outcome() {
	case budget.ImportComplete:
		sb.WriteString(successStyle.Render(m.status))
	case budget.ImportPartial:
		sb.WriteString(warningStyle.Render(m.status))
	default:
		sb.WriteString(errorStyle.Render(m.status))
	}

	if len(m.result.Failures) > 0 {
		sb.WriteString("\n\nFailed rows:\n")

		for _, f := range m.result.Failures {
			fmt.Fprintf(&sb, "  row %d  %s: %v\n", f.Row.SourceRow, f.Row.Description, f.Err)
		}
	}

	sb.WriteString("\n(Esc to go back)")

	return style.Render(sb.String())
}

// Messages

type parseResultMsg struct {
	rows      []budget.ParsedRow
	suggested int
	err       error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		format, err := importer.FormatFromFilename(path)
		if err != nil {
			return parseResultMsg{err: err}
		}

		f, err := os.Open(path)
		if err != nil {
			return parseResultMsg{err: err}
		}
		defer f.Close()

		rows, err := m.importService.Parse(format, f)
		if err != nil {
			return parseResultMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		rows, suggested, err := m.matchingService.Apply(ctx, rows)
		if err != nil {
			return parseResultMsg{err: fmt.Errorf("applying learned descriptions: %w", err)}
		}

		return parseResultMsg{rows: rows, suggested: suggested}
	}
}

// importRun streams progress from a running ImportBatch. progress is closed
// once the batch returns; done then holds the outcome.
type importRun struct {
	progress chan budget.Progress
	done     chan importDoneMsg
}

type importProgressMsg struct {
	progress budget.Progress
	run      importRun
}

type importDoneMsg struct {
	result *budget.ImportResult
	err    error
}

func (m ImportModel) commitCmd(rows []budget.ParsedRow) tea.Cmd {
	run := importRun{
		progress: make(chan budget.Progress),
		done:     make(chan importDoneMsg, 1),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.ledger.ImportBatch(ctx, m.grantID, rows,
			budget.WithProgress(run.progress),
			budget.WithWorkers(m.workers),
		)
		close(run.progress)

		if errors.Is(err, budget.ErrNothingImported) {
			err = nil
		}

		run.done <- importDoneMsg{result: result, err: err}
	}()

	return waitForImport(run)
}

func waitForImport(run importRun) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-run.progress; ok {
			return importProgressMsg{progress: p, run: run}
		}

		return <-run.done
	}
}
