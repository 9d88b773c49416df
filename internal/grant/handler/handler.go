package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"grantor/internal/grant"
	"grantor/internal/platform/middleware"
	pkgerrors "grantor/pkg/errors"
)

const adminTokenHeader = "X-Admin-Token"

// Service defines the administrative grant operations the handler needs.
type Service interface {
	Revoke(ctx context.Context, rawID string) (*grant.Grant, error)
	Get(ctx context.Context, rawID string) (*grant.Grant, error)
}

// Handler exposes operator endpoints for grant lifecycle overrides.
type Handler struct {
	logger     *slog.Logger
	service    Service
	adminToken string
}

// New creates a new admin grant Handler.
func New(svc Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		service:    svc,
		adminToken: adminToken,
	}
}

// Register registers the admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery(h.logger))
	adminRouter.Use(middleware.RequestID)
	adminRouter.Use(middleware.Logger(h.logger))
	adminRouter.Use(middleware.Timeout(10 * time.Second))
	adminRouter.Use(h.requireAdminToken)

	adminRouter.Get("/grants/{id}", h.handleGet)
	adminRouter.Post("/grants/{id}/revoke", h.handleRevoke)

	r.Mount("/admin", adminRouter)
}

func (h *Handler) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(adminTokenHeader)
		if token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			h.logger.WarnContext(r.Context(), "admin request without valid token",
				"request_id", middleware.GetRequestID(r.Context()),
			)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// grantResponse is the operator view of a grant.
type grantResponse struct {
	ID                 string `json:"id"`
	State              string `json:"state"`
	FinalizationReason string `json:"finalization_reason,omitempty"`
	FinishURI          string `json:"finish_uri,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func toGrantResponse(g *grant.Grant) grantResponse {
	return grantResponse{
		ID:                 g.ID.String(),
		State:              string(g.State),
		FinalizationReason: string(g.FinalizationReason),
		FinishURI:          g.FinishURI,
		CreatedAt:          g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          g.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "grant lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toGrantResponse(g))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.Revoke(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "grant revocation failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toGrantResponse(g))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	status := pkgerrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	h.writeJSON(w, status, map[string]string{"error": string(pkgerrors.CodeOf(err))})
}
