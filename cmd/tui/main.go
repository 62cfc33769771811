package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/grantledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/grantledger/internal/attachment/boltstore"
	"github.com/MrJamesThe3rd/grantledger/internal/attachment/gcs"
	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	budgetMemstore "github.com/MrJamesThe3rd/grantledger/internal/budget/memstore"
	budgetStore "github.com/MrJamesThe3rd/grantledger/internal/budget/store"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
	"github.com/MrJamesThe3rd/grantledger/internal/config"
	"github.com/MrJamesThe3rd/grantledger/internal/database"
	"github.com/MrJamesThe3rd/grantledger/internal/export"
	"github.com/MrJamesThe3rd/grantledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
	matchingMemstore "github.com/MrJamesThe3rd/grantledger/internal/matching/memstore"
	matchingStore "github.com/MrJamesThe3rd/grantledger/internal/matching/store"
)

type model struct {
	ledgerService   *budget.Service
	matchingService *matching.Service
	importService   *importer.Service
	exportService   *export.Service
	workers         int

	grantID     uuid.UUID
	currentView View
	status      string

	grantView  view.GrantModel
	importView view.ImportModel
	listView   view.ListModel
	ledgerView view.LedgerModel
	exportView view.ExportModel
}

type View int

const (
	ViewMenu   View = 0
	ViewGrant  View = 1
	ViewImport View = 2
	ViewList   View = 3
	ViewLedger View = 4
	ViewExport View = 5
)

type services struct {
	ledger   *budget.Service
	matching *matching.Service
	closers  []io.Closer
}

// openServices wires the ledger against Postgres, or against process memory
// when offline. Proof storage follows the configured attachment backend.
func openServices(ctx context.Context, cfg *config.Config, offline bool) (*services, error) {
	svc := &services{}

	matcher := category.Default()
	if cfg.Import.RulesPath != "" {
		m, err := category.LoadRules(cfg.Import.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("loading category rules: %w", err)
		}

		matcher = m
	}

	var attachments budget.AttachmentStore

	switch cfg.Attachments.Backend {
	case config.AttachmentsGCS:
		store, err := gcs.New(ctx, cfg.Attachments.GCSBucket, cfg.Attachments.URLTTL)
		if err != nil {
			return nil, fmt.Errorf("opening gcs attachments: %w", err)
		}

		svc.closers = append(svc.closers, store)
		attachments = store
	default:
		store, err := boltstore.New(cfg.Attachments.BoltPath, cfg.Attachments.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening bolt attachments: %w", err)
		}

		svc.closers = append(svc.closers, store)
		attachments = store
	}

	if offline {
		svc.ledger = budget.NewService(budgetMemstore.New(), matcher, attachments)
		svc.matching = matching.NewService(matchingMemstore.New())

		return svc, nil
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	svc.closers = append(svc.closers, db)

	if err := database.Migrate(ctx, db); err != nil {
		svc.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	svc.ledger = budget.NewService(budgetStore.New(db), matcher, attachments)
	svc.matching = matching.NewService(matchingStore.New(db))

	return svc, nil
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// exportTokenTTL bounds the token used to fetch proofs served by the API.
const exportTokenTTL = time.Hour

func initialModel(svc *services, cfg *config.Config) (model, error) {
	var token string

	if cfg.Auth.JWTSecret != "" {
		t, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), "tui-export", exportTokenTTL)
		if err != nil {
			return model{}, fmt.Errorf("issuing export token: %w", err)
		}

		token = t
	}

	return model{
		ledgerService:   svc.ledger,
		matchingService: svc.matching,
		importService:   importer.NewService(),
		exportService:   export.NewService(svc.ledger, token),
		workers:         cfg.Import.Workers,
		currentView:     ViewGrant,
		grantView:       view.NewGrantModel(uuid.Nil),
	}, nil
}

func (m model) Init() tea.Cmd {
	return m.grantView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewGrant
				m.grantView = view.NewGrantModel(m.grantID)

				return m, m.grantView.Init()
			case "2":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.ledgerService, m.importService, m.matchingService, m.grantID, m.workers)

				return m, m.importView.Init()
			case "3":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.ledgerService, m.grantID)

				return m, m.listView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService, m.ledgerService, m.grantID)

				return m, m.exportView.Init()
			}
		}
	case view.GrantSelectedMsg:
		m.grantID = msg.GrantID
		m.currentView = ViewMenu

		return m, nil
	case view.OpenLedgerMsg:
		m.currentView = ViewLedger
		m.ledgerView = view.NewLedgerModel(m.ledgerService, msg.Item)

		return m, m.ledgerView.Init()
	case view.BackMsg:
		if m.currentView == ViewLedger {
			m.currentView = ViewList
			return m, m.listView.Init()
		}

		if m.currentView == ViewGrant && m.grantID == uuid.Nil {
			return m, tea.Quit
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewGrant:
		var newModel tea.Model
		newModel, cmd = m.grantView.Update(msg)
		m.grantView = newModel.(view.GrantModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"GrantLedger TUI\n" +
				lipgloss.NewStyle().Faint(true).Render("Grant "+m.grantID.String()) + "\n\n" +
				"1. Select Grant\n" +
				"2. Import Budget Spreadsheet\n" +
				"3. Browse Budget Items\n" +
				"4. Export Grant\n\n" +
				"q. Quit",
		)
	case ViewGrant:
		return m.grantView.View()
	case ViewImport:
		return m.importView.View()
	case ViewList:
		return m.listView.View()
	case ViewLedger:
		return m.ledgerView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	offline := flag.Bool("offline", false, "keep the ledger in memory instead of Postgres")
	logPath := flag.String("log", "grantledger-tui.log", "file receiving the TUI's log output")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(*logPath, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logger.NewWithWriter(logFile)
	logger.SetDefault(log)

	ctx := logger.WithContext(context.Background(), log)

	svc, err := openServices(ctx, cfg, *offline)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	m, err := initialModel(svc, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		os.Exit(1)
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run TUI")
		os.Exit(1)
	}
}
