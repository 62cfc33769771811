package attachment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
	"github.com/MrJamesThe3rd/grantledger/internal/http/respond"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

// Opener reads back a stored proof by reference.
type Opener interface {
	Open(ctx context.Context, ref string) (*attachment.Object, error)
}

type Handler struct {
	store Opener
}

func NewHandler(store Opener) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{ref}", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	obj, err := h.store.Open(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", obj.Name))

	if _, err := w.Write(obj.Data); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to write attachment")
	}
}
