package matching

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/grantledger/internal/http/respond"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type mappingDTO struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

type suggestResponse struct {
	Description string      `json:"description"`
	Suggestion  *mappingDTO `json:"suggestion,omitempty"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		http.Error(w, "description query parameter is required", http.StatusBadRequest)
		return
	}

	m, err := h.svc.Suggest(r.Context(), desc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := suggestResponse{Description: desc}
	if m != nil {
		resp.Suggestion = &mappingDTO{Pattern: m.Pattern, Description: m.Description, Category: m.Category}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req mappingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.Learn(r.Context(), matching.Mapping{
		Pattern:     req.Pattern,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]mappingDTO, len(mappings))
	for i, m := range mappings {
		resp[i] = mappingDTO{Pattern: m.Pattern, Description: m.Description, Category: m.Category}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}
