package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
	"github.com/MrJamesThe3rd/grantledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/grantledger/internal/http/respond"
)

type Handler struct {
	svc           *budget.Service
	maxProofBytes int64
}

func NewHandler(svc *budget.Service, maxProofBytes int64) *Handler {
	return &Handler{svc: svc, maxProofBytes: maxProofBytes}
}

// GrantRoutes expects a {grantID} URL parameter on the mount point.
func (h *Handler) GrantRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Post("/items", h.createItem)
	r.Get("/summary", h.summary)
	r.Delete("/", h.deleteGrant)
}

func (h *Handler) ItemRoutes(r chi.Router) {
	r.Get("/{id}", h.getItem)
	r.Patch("/{id}", h.updateItem)
	r.Delete("/{id}", h.deleteItem)
	r.Get("/{id}/transactions", h.listTransactions)
	r.Post("/{id}/transactions", h.recordTransaction)
	r.Get("/{id}/transactions/check", h.checkTransaction)
	r.Post("/{id}/reconcile", h.reconcile)
}

func (h *Handler) TransactionRoutes(r chi.Router) {
	r.Get("/{id}", h.getTransaction)
	r.Get("/{id}/proof", h.proof)
}

func urlID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}

	return id, nil
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	grantID, err := urlID(r, "grantID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter := budget.ItemFilter{GrantID: &grantID}

	if s := r.URL.Query().Get("category"); s != "" {
		c, ok := category.Parse(s)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}

		filter.Category = new(c)
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := budget.Status(strings.ToLower(s))
		if !slices.Contains(budget.Statuses(), status) {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}

		filter.Status = new(status)
	}

	items, err := h.svc.ListItems(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toItemResponseList(items))
}

type createItemRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	grantID, err := urlID(r, "grantID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), budget.CreateItemParams{
		GrantID:     grantID,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	grantID, err := urlID(r, "grantID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sum, err := h.svc.Summary(r.Context(), grantID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toSummaryResponse(sum))
}

func (h *Handler) deleteGrant(w http.ResponseWriter, r *http.Request) {
	grantID, err := urlID(r, "grantID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteGrant(r.Context(), grantID); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toItemResponse(item))
}

// Status is not editable; it always follows the ledger.
type updateItemRequest struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int64  `json:"price,omitempty"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), id, budget.UpdateItemParams{
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toItemResponse(item))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.svc.GetItem(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.svc.ListTransactions(r.Context(), budget.TransactionFilter{BudgetItemID: &id})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toTransactionResponseList(txs))
}

type recordRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// recordTransaction accepts either a JSON body or a multipart form with the
// fields amount and description plus an optional proof file.
func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := budget.RecordParams{
		ItemID:      id,
		SubmittedBy: middleware.SubmitterFromContext(r.Context()),
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := h.readMultipartRecord(w, r, &params); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		var req recordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		params.Amount = req.Amount
		params.Description = req.Description
	}

	res, err := h.svc.RecordTransaction(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, recordResponse{
		Transaction: toTransactionResponse(res.Transaction),
		Item:        toItemResponse(res.Item),
		Warning:     toWarningResponse(res.Warning),
	})
}

func (h *Handler) readMultipartRecord(w http.ResponseWriter, r *http.Request, params *budget.RecordParams) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxProofBytes)

	if err := r.ParseMultipartForm(h.maxProofBytes); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}

	amount, err := strconv.ParseInt(r.FormValue("amount"), 10, 64)
	if err != nil {
		return errors.New("amount must be an integer number of minor units")
	}

	params.Amount = amount
	params.Description = r.FormValue("description")

	file, header, err := r.FormFile("proof")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}

		return fmt.Errorf("reading proof: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading proof: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	params.Proof = &budget.Proof{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}

	return nil
}

func (h *Handler) checkTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		http.Error(w, "amount query parameter is required", http.StatusBadRequest)
		return
	}

	warning, err := h.svc.CheckTransaction(r.Context(), id, amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, checkResponse{
		WouldExceed: warning != nil,
		Warning:     toWarningResponse(warning),
	})
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, changed, err := h.svc.Reconcile(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, reconcileResponse{Item: toItemResponse(item), Changed: changed})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) proof(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.svc.ProofURL(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}
