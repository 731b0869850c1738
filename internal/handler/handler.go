package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"linkshort/internal/service"
	apperrors "linkshort/pkg/errors"
)

type Handler struct {
	Service *service.Service
	Logger  *slog.Logger
}

// Request bodies
type shortenRequest struct {
	URL string `json:"url"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func NewHandler(s *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service: s,
		Logger:  logger.With("component", "http"),
	}
}

func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/shorten", h.CreateShort).Methods(http.MethodPost)
	r.HandleFunc("/api/urls", h.ListURLs).Methods(http.MethodGet)
	r.HandleFunc("/api/urls/{code}", h.GetURL).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/{code}", h.Redirect).Methods(http.MethodGet)
	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Healthy(r.Context()); err != nil {
		h.Logger.WarnContext(r.Context(), "health check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		h.Logger.DebugContext(r.Context(), "write response failed", "error", err)
	}
}

func (h *Handler) CreateShort(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.ErrInvalidBody.WithDetails(err.Error()))
		return
	}

	m, err := h.Service.CreateShort(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, m)
}

func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Lookup(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, m)
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	original, err := h.Service.Resolve(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, redirectResponse{URL: original})
}

// writeError maps NOT_FOUND to 404 and INVALID_INPUT to 400. Everything else,
// duplicate codes included, is a 500 carrying the underlying message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsNotFound(err):
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Detail: apperrors.ErrURLNotFound.Message})
	case apperrors.IsInvalidInput(err):
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Detail: detail(err)})
	default:
		h.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: detail(err)})
	}
}

func detail(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	switch {
	case appErr.Details != "":
		return appErr.Message + ": " + appErr.Details
	case appErr.Err != nil:
		return appErr.Message + ": " + appErr.Err.Error()
	}
	return appErr.Message
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.DebugContext(r.Context(), "encode response failed", "error", err)
	}
}
