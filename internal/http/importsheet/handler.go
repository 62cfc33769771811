package importsheet

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/http/respond"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

type Handler struct {
	importSvc *importer.Service
	ledger    *budget.Service
	matchSvc  *matching.Service
	maxBytes  int64
	workers   int
}

func NewHandler(importSvc *importer.Service, ledger *budget.Service, matchSvc *matching.Service, maxBytes int64, workers int) *Handler {
	return &Handler{
		importSvc: importSvc,
		ledger:    ledger,
		matchSvc:  matchSvc,
		maxBytes:  maxBytes,
		workers:   workers,
	}
}

// Routes expects a {grantID} URL parameter on the mount point.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.preview)
	r.Post("/confirm", h.confirm)
}

type rowDTO struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Total       int64  `json:"total"`
	SourceRow   int    `json:"source_row,omitempty"`
}

type previewResponse struct {
	Format    importer.Format `json:"format"`
	Rows      []rowDTO        `json:"rows"`
	Suggested int             `json:"suggested"`
}

type confirmRequest struct {
	Rows []rowDTO `json:"rows"`
}

type failureDTO struct {
	Index     int    `json:"index"`
	SourceRow int    `json:"source_row,omitempty"`
	Error     string `json:"error"`
}

type itemDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
}

type confirmResponse struct {
	Outcome   budget.ImportOutcome `json:"outcome"`
	Message   string               `json:"message"`
	Attempted int                  `json:"attempted"`
	Succeeded int                  `json:"succeeded"`
	Items     []itemDTO            `json:"items"`
	Failures  []failureDTO         `json:"failures"`
}

// preview parses an uploaded spreadsheet and returns the detected line items for
// review. Nothing is written.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	if _, err := uuid.Parse(chi.URLParam(r, "grantID")); err != nil {
		http.Error(w, "invalid grantID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format, err := importer.FormatFromFilename(header.Filename)
	if v := r.FormValue("format"); v != "" {
		format, err = importer.ParseFormat(v)
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	rows, err := h.importSvc.Parse(format, file)
	if err != nil {
		if errors.Is(err, importer.ErrNoItems) || errors.Is(err, importer.ErrUnknownFormat) {
			respond.Error(w, r, err)
			return
		}

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	rows, suggested, err := h.matchSvc.Apply(r.Context(), rows)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, previewResponse{
		Format:    format,
		Rows:      toRowDTOs(rows),
		Suggested: suggested,
	})
}

// confirm commits reviewed rows as budget items. A partial import is still a
// success; only a batch where every row failed is reported as unprocessable.
func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	grantID, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		http.Error(w, "invalid grantID", http.StatusBadRequest)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rows := make([]budget.ParsedRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, budget.ParsedRow{
			Description: row.Description,
			Category:    row.Category,
			Total:       row.Total,
			SourceRow:   row.SourceRow,
		})
	}

	result, err := h.ledger.ImportBatch(r.Context(), grantID, rows, budget.WithWorkers(h.workers))
	if err != nil && !errors.Is(err, budget.ErrNothingImported) {
		respond.Error(w, r, err)
		return
	}

	status := http.StatusCreated
	if err != nil {
		status = respond.Status(err)
	}

	respond.JSON(w, r, status, toConfirmResponse(result))
}

func toRowDTOs(rows []budget.ParsedRow) []rowDTO {
	out := make([]rowDTO, len(rows))
	for i, row := range rows {
		out[i] = rowDTO{
			Description: row.Description,
			Category:    row.Category,
			Total:       row.Total,
			SourceRow:   row.SourceRow,
		}
	}

	return out
}

func toConfirmResponse(result *budget.ImportResult) confirmResponse {
	resp := confirmResponse{
		Outcome:   result.Outcome(),
		Message:   result.Message(),
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Items:     make([]itemDTO, 0, len(result.Items)),
		Failures:  make([]failureDTO, 0, len(result.Failures)),
	}

	for _, item := range result.Items {
		resp.Items = append(resp.Items, itemDTO{
			ID:          item.ID,
			Description: item.Description,
			Category:    string(item.Category),
			Price:       item.Price,
		})
	}

	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, failureDTO{
			Index:     f.Index,
			SourceRow: f.Row.SourceRow,
			Error:     f.Err.Error(),
		})
	}

	return resp
}
