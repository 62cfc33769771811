package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

// Item is one exported transaction with the local path of its downloaded proof.
type Item struct {
	Transaction *budget.Transaction
	BudgetItem  *budget.Item
	FilePath    string
}

// Service exports a grant's ledger together with its proof documents.
type Service struct {
	ledger   *budget.Service
	client   *http.Client
	apiToken string
}

// NewService creates an export service. apiToken, when set, is sent as a bearer
// token so proofs served by this API can be fetched.
func NewService(ledger *budget.Service, apiToken string) *Service {
	return &Service{
		ledger:   ledger,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiToken: apiToken,
	}
}

// Export downloads the proofs of every transaction of the grant into outputDir.
// Transactions come back in ledger order, each linked to its budget item.
func (s *Service) Export(ctx context.Context, grantID uuid.UUID, outputDir string) ([]Item, error) {
	transactions, err := s.ledger.ListTransactions(ctx, budget.TransactionFilter{GrantID: &grantID})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	budgetItems, err := s.ledger.ListItems(ctx, budget.ItemFilter{GrantID: &grantID})
	if err != nil {
		return nil, fmt.Errorf("listing budget items: %w", err)
	}

	byID := make(map[uuid.UUID]*budget.Item, len(budgetItems))
	for _, bi := range budgetItems {
		byID[bi.ID] = bi
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(transactions))

	for _, t := range transactions {
		item := Item{
			Transaction: t,
			BudgetItem:  byID[t.BudgetItemID],
		}

		if t.ProofRef != "" {
			path, err := s.downloadProof(ctx, t, outputDir)
			if err != nil {
				return nil, fmt.Errorf("downloading proof for transaction %s: %w", t.ID, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) downloadProof(ctx context.Context, tx *budget.Transaction, dir string) (string, error) {
	url, err := s.ledger.ProofURL(ctx, tx.ID)
	if err != nil {
		return "", fmt.Errorf("resolving proof url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, url)
	}

	path := filepath.Join(dir, determineFilename(resp, tx))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// determineFilename prefixes the served file name, or one built from the
// transaction, with the transaction's short id so proofs never collide.
func determineFilename(resp *http.Response, tx *budget.Transaction) string {
	prefix := tx.ID.String()[:8]

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if filename, ok := params["filename"]; ok && filename != "" {
				return prefix + "_" + strings.ReplaceAll(filepath.Base(filename), " ", "_")
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	safeDesc := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, tx.Description)

	return fmt.Sprintf("%s_%s_%s%s", prefix, tx.CreatedAt.Format("20060102"), safeDesc, ext)
}

// GenerateReport renders the grant's planned-versus-actual position followed by
// one line per exported transaction.
func GenerateReport(summary *budget.GrantSummary, items []Item) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Grant %s\n", summary.GrantID)
	fmt.Fprintf(&sb, "Planned %s | Spent %s | Remaining %s\n\n",
		budget.FormatAmount(summary.Planned),
		budget.FormatAmount(summary.Spent),
		budget.FormatAmount(summary.Remaining))

	for _, c := range summary.Categories {
		fmt.Fprintf(&sb, "%-14s planned %14s  spent %14s  remaining %14s  (%d items)\n",
			c.Category,
			budget.FormatAmount(c.Planned),
			budget.FormatAmount(c.Spent),
			budget.FormatAmount(c.Remaining),
			c.Items)
	}

	if len(items) > 0 {
		sb.WriteString("\nTransactions\n")
	}

	for _, item := range items {
		line := "Unknown item"
		if item.BudgetItem != nil {
			line = item.BudgetItem.Description
		}

		proof := "No proof"
		if item.FilePath != "" {
			proof = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s | %s\n",
			item.Transaction.CreatedAt.Format("2006-01-02"),
			line,
			item.Transaction.Description,
			budget.FormatAmount(item.Transaction.Amount),
			proof)
	}

	return sb.String()
}

// WriteArchive zips the report and every downloaded proof into w.
func WriteArchive(w io.Writer, report string, items []Item) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		err = errors.Join(err, zw.Close())
	}()

	rw, err := zw.Create("report.txt")
	if err != nil {
		return fmt.Errorf("adding report: %w", err)
	}

	if _, err := io.WriteString(rw, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	for _, item := range items {
		if item.FilePath == "" {
			continue
		}

		if err := addFile(zw, "proofs/"+filepath.Base(item.FilePath), item.FilePath); err != nil {
			return err
		}
	}

	return nil
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}
