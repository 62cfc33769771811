package export

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/export"
	"github.com/MrJamesThe3rd/grantledger/internal/http/respond"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

type Handler struct {
	svc    *export.Service
	ledger *budget.Service
}

func NewHandler(svc *export.Service, ledger *budget.Service) *Handler {
	return &Handler{svc: svc, ledger: ledger}
}

// Routes expects a {grantID} URL parameter on the mount point.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.download)
	r.Get("/report", h.report)
}

// report renders the plain-text report without fetching any proofs.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	grantID, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		http.Error(w, "invalid grantID", http.StatusBadRequest)
		return
	}

	summary, err := h.ledger.Summary(r.Context(), grantID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), budget.TransactionFilter{GrantID: &grantID})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	byID := make(map[uuid.UUID]*budget.Item, len(summary.Items))
	for _, b := range summary.Items {
		byID[b.Item.ID] = b.Item
	}

	items := make([]export.Item, 0, len(txs))
	for _, tx := range txs {
		items = append(items, export.Item{Transaction: tx, BudgetItem: byID[tx.BudgetItemID]})
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(export.GenerateReport(summary, items))); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to write report")
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	grantID, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		http.Error(w, "invalid grantID", http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "grantledger-export-*")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	summary, err := h.ledger.Summary(r.Context(), grantID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	items, err := h.svc.Export(r.Context(), grantID, tmpDir)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"grant_%s_%s.zip\"", grantID.String()[:8], time.Now().Format("20060102")))

	if err := export.WriteArchive(w, export.GenerateReport(summary, items), items); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to create zip")
	}
}
