package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"grantor/internal/interaction/service"
	"grantor/internal/platform/middleware"
	"grantor/internal/session"
	pkgerrors "grantor/pkg/errors"
)

// idpSecretHeader carries the consent provider's pre-shared secret.
const idpSecretHeader = "x-idp-secret"

// Service defines the flow controller operations the handler needs.
type Service interface {
	Start(ctx context.Context, in service.StartInput) (*service.StartRedirect, error)
	Details(ctx context.Context, in service.DetailsInput) (*service.GrantDetails, error)
	Decide(ctx context.Context, in service.DecisionInput) error
	Finish(ctx context.Context, in service.FinishInput) (*service.FinishRedirect, error)
}

// Handler exposes the interaction endpoints: the client-facing start/finish
// redirects and the consent provider's details/decision channel.
type Handler struct {
	logger   *slog.Logger
	service  Service
	sessions *session.Manager
}

// New creates a new interaction Handler.
func New(svc Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  svc,
		sessions: sessions,
	}
}

// Register registers the interaction routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	interactionRouter := chi.NewRouter()
	interactionRouter.Use(middleware.Recovery(h.logger))
	interactionRouter.Use(middleware.RequestID)
	interactionRouter.Use(middleware.Logger(h.logger))
	interactionRouter.Use(middleware.Timeout(30 * time.Second))

	// Client-facing, browser channel.
	interactionRouter.Get("/interact/{id}/{nonce}", h.handleStart)
	interactionRouter.Get("/interact/{id}/{nonce}/finish", h.handleFinish)

	// Consent-provider channel, gated by the IDP secret.
	interactionRouter.Get("/grant/{id}/{nonce}", h.handleDetails)
	interactionRouter.Post("/grant/{id}/{nonce}/{choice}", h.handleDecision)

	r.Mount("/", interactionRouter)
}

// handleStart validates the capability, binds the browser session to the
// interaction nonce, and redirects the end-user to the consent provider.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.service.Start(ctx, service.StartInput{
		ID:         chi.URLParam(r, "id"),
		Nonce:      chi.URLParam(r, "nonce"),
		ClientName: r.URL.Query().Get("clientName"),
		ClientURI:  r.URL.Query().Get("clientUri"),
	})
	if err != nil {
		h.writeError(w, r, "interaction start rejected", err)
		return
	}

	if err := h.sessions.Bind(ctx, w, redirect.Nonce); err != nil {
		h.logger.ErrorContext(ctx, "failed to bind session",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to bind session"))
		return
	}

	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// handleFinish checks the session binding and redirects the client to the
// grant's finish URI with the outcome encoded in the query string.
func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.service.Finish(ctx, service.FinishInput{
		ID:           chi.URLParam(r, "id"),
		Nonce:        chi.URLParam(r, "nonce"),
		SessionNonce: h.sessions.Nonce(ctx, r),
	})
	if err != nil {
		h.writeError(w, r, "interaction finish rejected", err)
		return
	}

	// The binding is single-use: once consumed, a replayed finish URL
	// starts from nothing.
	h.sessions.Clear(ctx, w, r)

	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// handleDetails returns the grant's requested scopes to the consent provider.
func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	details, err := h.service.Details(ctx, service.DetailsInput{
		ID:     chi.URLParam(r, "id"),
		Nonce:  chi.URLParam(r, "nonce"),
		Secret: r.Header.Get(idpSecretHeader),
	})
	if err != nil {
		h.writeError(w, r, "grant details rejected", err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// handleDecision records the consent provider's accept/reject verdict.
func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.service.Decide(ctx, service.DecisionInput{
		ID:     chi.URLParam(r, "id"),
		Nonce:  chi.URLParam(r, "nonce"),
		Choice: service.Choice(chi.URLParam(r, "choice")),
		Secret: r.Header.Get(idpSecretHeader),
	})
	if err != nil {
		h.writeError(w, r, "interaction decision rejected", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if pkgerrors.StatusOf(err) >= http.StatusInternalServerError {
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
	writeError(w, err)
}
