// Package service implements the interaction flow controller: Start,
// Details, Decide, and Finish. It composes the grant and interaction state
// machines, the finish-proof digest, and the browser-session nonce binding,
// and translates store-level sentinel errors into protocol errors at this
// boundary.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"grantor/internal/access"
	"grantor/internal/grant"
	"grantor/internal/interaction"
	"grantor/internal/platform/metrics"
	"grantor/internal/proof"
	"grantor/pkg/domain"
	pkgerrors "grantor/pkg/errors"
	"grantor/pkg/platform/sentinel"
)

// GrantStore is the slice of the grant store the flow controller needs.
type GrantStore interface {
	FindByID(ctx context.Context, id domain.GrantID) (*grant.Grant, error)
	Approve(ctx context.Context, id domain.GrantID) (*grant.Grant, error)
	Finalize(ctx context.Context, id domain.GrantID, reason grant.GrantFinalization) (*grant.Grant, error)
}

// InteractionStore is the slice of the interaction store the flow controller
// needs.
type InteractionStore interface {
	FindByIDAndNonce(ctx context.Context, id domain.InteractionID, nonce string) (*interaction.Interaction, error)
	Approve(ctx context.Context, id domain.InteractionID) (*interaction.Interaction, error)
	Deny(ctx context.Context, id domain.InteractionID) (*interaction.Interaction, error)
}

// AccessStore lists the scopes requested under a grant.
type AccessStore interface {
	ListByGrant(ctx context.Context, grantID domain.GrantID) ([]*access.Access, error)
}

// Config carries the knobs the flow controller reads. Passed explicitly so
// nothing here depends on ambient state.
type Config struct {
	// AuthServerURL is this server's public base URL, hashed into the
	// finish proof as the canonical interaction URL.
	AuthServerURL string
	// IdentityServerURL is the consent provider entry point.
	IdentityServerURL string
	// IdentityServerSecret authenticates the consent provider.
	IdentityServerSecret string
}

// Service is the interaction flow controller.
type Service struct {
	grants       GrantStore
	interactions InteractionStore
	accesses     AccessStore
	cfg          Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// New constructs the flow controller.
func New(
	grants GrantStore,
	interactions InteractionStore,
	accesses AccessStore,
	cfg Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		grants:       grants,
		interactions: interactions,
		accesses:     accesses,
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
	}
}

// StartInput identifies the interaction being started plus optional display
// hints forwarded to the consent UI.
type StartInput struct {
	ID         string
	Nonce      string
	ClientName string
	ClientURI  string
}

// StartRedirect is the consent-provider redirect plus the nonce the caller
// must bind to the browser session.
type StartRedirect struct {
	URL   string
	Nonce string
}

// Start validates the (id, nonce) capability and builds the consent-provider
// redirect. The id+nonce pair is treated as one capability: a correct id with
// a wrong nonce is indistinguishable from a missing interaction, and both
// fail 401 unknown_request.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartRedirect, error) {
	fail := func() error {
		return pkgerrors.New(http.StatusUnauthorized, pkgerrors.CodeUnknownRequest, "unknown interaction")
	}

	interact, err := s.findInteraction(ctx, in.ID, in.Nonce, fail)
	if err != nil {
		return nil, err
	}
	g, err := s.findGrant(ctx, interact.GrantID, fail)
	if err != nil {
		return nil, err
	}
	if g.IsFinalized() {
		return nil, fail()
	}

	redirect, err := url.Parse(s.cfg.IdentityServerURL)
	if err != nil {
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "invalid identity server URL")
	}
	q := redirect.Query()
	q.Set("interactId", interact.ID.String())
	q.Set("nonce", interact.Nonce)
	if in.ClientName != "" {
		q.Set("clientName", in.ClientName)
	}
	if in.ClientURI != "" {
		q.Set("clientUri", in.ClientURI)
	}
	redirect.RawQuery = q.Encode()

	s.metrics.IncInteractionsStarted()
	return &StartRedirect{URL: redirect.String(), Nonce: interact.Nonce}, nil
}

// DetailsInput identifies the interaction whose scopes the consent provider
// is asking about.
type DetailsInput struct {
	ID     string
	Nonce  string
	Secret string
}

// GrantDetails is the scope list shown on the consent screen.
type GrantDetails struct {
	Access []access.Item `json:"access"`
}

// Details returns the requested scopes for the consent UI. Only the trusted
// consent provider may call it; a finalized grant is hidden behind a 404
// rather than described, so grant lifecycle never leaks to the UI.
func (s *Service) Details(ctx context.Context, in DetailsInput) (*GrantDetails, error) {
	if err := s.checkIDPSecret(in.Secret); err != nil {
		return nil, err
	}

	fail := func() error {
		return pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown interaction")
	}

	interact, err := s.findInteraction(ctx, in.ID, in.Nonce, fail)
	if err != nil {
		return nil, err
	}

	var (
		g       *grant.Grant
		records []*access.Access
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var grantErr error
		g, grantErr = s.grants.FindByID(gctx, interact.GrantID)
		return grantErr
	})
	group.Go(func() error {
		var listErr error
		records, listErr = s.accesses.ListByGrant(gctx, interact.GrantID)
		return listErr
	})
	if err := group.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fail()
		}
		s.logger.ErrorContext(ctx, "failed to load grant details", "error", err)
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to load grant details")
	}
	if g.IsFinalized() {
		return nil, fail()
	}

	items := make([]access.Item, 0, len(records))
	for _, a := range records {
		items = append(items, a.ToItem())
	}
	return &GrantDetails{Access: items}, nil
}

// Choice is the consent decision recorded by the identity provider.
type Choice string

const (
	ChoiceAccept Choice = "accept"
	ChoiceReject Choice = "reject"
)

// DecisionInput carries the consent provider's accept/reject verdict.
type DecisionInput struct {
	ID     string
	Nonce  string
	Choice Choice
	Secret string
}

// Decide records the consent outcome on the Interaction only. Grant
// finalization is deferred to Finish so the client, not the IDP, controls
// when the grant becomes visible as approved, and an abandoned finish never
// leaves a silently active grant.
func (s *Service) Decide(ctx context.Context, in DecisionInput) error {
	if err := s.checkIDPSecret(in.Secret); err != nil {
		return err
	}

	fail := func() error {
		return pkgerrors.New(http.StatusNotFound, pkgerrors.CodeUnknownRequest, "unknown interaction")
	}

	interact, err := s.findInteraction(ctx, in.ID, in.Nonce, fail)
	if err != nil {
		return err
	}
	g, err := s.findGrant(ctx, interact.GrantID, fail)
	if err != nil {
		return err
	}
	if g.IsFinalized() {
		// A decision against a finalized (typically revoked) grant is
		// meaningless; the interaction stays untouched.
		return fail()
	}

	switch in.Choice {
	case ChoiceAccept:
		_, err = s.interactions.Approve(ctx, interact.ID)
	case ChoiceReject:
		_, err = s.interactions.Deny(ctx, interact.ID)
	default:
		return pkgerrors.New(http.StatusNotFound, pkgerrors.CodeNotFound, "unknown decision choice")
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyDecided) || errors.Is(err, sentinel.ErrNotFound) {
			return fail()
		}
		s.logger.ErrorContext(ctx, "failed to record decision", "interaction_id", interact.ID.String(), "error", err)
		return pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to record decision")
	}

	s.metrics.IncInteractionDecision(string(in.Choice))
	return nil
}

// FinishInput carries the returning client's capability plus the nonce bound
// to the browser session at Start.
type FinishInput struct {
	ID           string
	Nonce        string
	SessionNonce string
}

// Finish result labels for metrics and the redirect query.
const (
	resultApproved = "approved"
	resultRejected = "grant_rejected"
	resultInvalid  = "grant_invalid"
)

// FinishRedirect is where the client's browser is sent after the flow ends.
// Outcome is encoded in the redirect query, never as an error body, so the
// end-user always lands back on a client-controlled page.
type FinishRedirect struct {
	URL string
}

// Finish validates the session binding and closes out the flow. On an
// approved interaction it moves the grant to Approved and issues the
// hash+ref redirect; on a denied one it finalizes the grant as Rejected; an
// undecided interaction redirects with result=grant_invalid and mutates
// nothing.
func (s *Service) Finish(ctx context.Context, in FinishInput) (*FinishRedirect, error) {
	fail := func() error {
		return pkgerrors.New(http.StatusNotFound, pkgerrors.CodeUnknownRequest, "unknown interaction")
	}

	if in.ID == "" {
		return nil, fail()
	}
	// The browser that started the flow must be the one finishing it.
	if in.SessionNonce == "" ||
		subtle.ConstantTimeCompare([]byte(in.SessionNonce), []byte(in.Nonce)) != 1 {
		return nil, pkgerrors.New(http.StatusUnauthorized, pkgerrors.CodeInvalidRequest, "session does not match interaction")
	}

	interact, err := s.findInteraction(ctx, in.ID, in.Nonce, fail)
	if err != nil {
		return nil, err
	}
	g, err := s.findGrant(ctx, interact.GrantID, fail)
	if err != nil {
		return nil, err
	}
	// Lifecycle gate: a revoked (or issued) grant cannot be finished at
	// all. A grant already finalized as Rejected stays finishable so the
	// denied branch can re-issue its redirect.
	if g.IsFinalized() && g.FinalizationReason != grant.FinalizationRejected {
		return nil, fail()
	}
	if g.FinishURI == "" {
		// The client requested this grant without a finish redirect;
		// there is nothing to finish against.
		return nil, fail()
	}

	redirect, err := url.Parse(g.FinishURI)
	if err != nil {
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "invalid finish uri")
	}
	q := redirect.Query()

	switch interact.State {
	case interaction.StateApproved:
		if _, err := s.grants.Approve(ctx, g.ID); err != nil {
			if errors.Is(err, sentinel.ErrFinalized) {
				// Lost a race to a revocation between the read
				// above and the transition.
				return nil, fail()
			}
			s.logger.ErrorContext(ctx, "failed to approve grant", "grant_id", g.ID.String(), "error", err)
			return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to approve grant")
		}
		interactionURL := proof.InteractionURL(s.cfg.AuthServerURL, interact.ID)
		hash := proof.FinishHash(g.ClientNonce, interact.Nonce, interact.Ref, interactionURL)
		q.Set("hash", hash)
		q.Set("interact_ref", interact.Ref)
		s.metrics.IncFinishRedirect(resultApproved)
	case interaction.StateDenied:
		if !g.IsFinalized() {
			if _, err := s.grants.Finalize(ctx, g.ID, grant.FinalizationRejected); err != nil && !errors.Is(err, sentinel.ErrFinalized) {
				s.logger.ErrorContext(ctx, "failed to finalize rejected grant", "grant_id", g.ID.String(), "error", err)
				return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to finalize grant")
			}
		}
		q.Set("result", resultRejected)
		s.metrics.IncFinishRedirect(resultRejected)
	default:
		// Still pending: the client came back before a decision was
		// recorded. No mutation.
		q.Set("result", resultInvalid)
		s.metrics.IncFinishRedirect(resultInvalid)
	}

	redirect.RawQuery = q.Encode()
	return &FinishRedirect{URL: redirect.String()}, nil
}

// findInteraction resolves the (id, nonce) capability. Malformed ids,
// missing interactions, and nonce mismatches all produce the same caller
// supplied failure so none is distinguishable from the others.
func (s *Service) findInteraction(ctx context.Context, rawID, nonce string, fail func() error) (*interaction.Interaction, error) {
	id, err := domain.ParseInteractionID(rawID)
	if err != nil {
		return nil, fail()
	}
	interact, err := s.interactions.FindByIDAndNonce(ctx, id, nonce)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fail()
		}
		s.logger.ErrorContext(ctx, "failed to load interaction", "error", err)
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to load interaction")
	}
	return interact, nil
}

func (s *Service) findGrant(ctx context.Context, id domain.GrantID, fail func() error) (*grant.Grant, error) {
	g, err := s.grants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fail()
		}
		s.logger.ErrorContext(ctx, "failed to load grant", "error", err)
		return nil, pkgerrors.New(http.StatusInternalServerError, pkgerrors.CodeInternal, "failed to load grant")
	}
	return g, nil
}

// checkIDPSecret performs the consent-provider capability check once at the
// controller boundary. Constant-time comparison.
func (s *Service) checkIDPSecret(secret string) error {
	if secret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.IdentityServerSecret)) != 1 {
		return pkgerrors.New(http.StatusUnauthorized, pkgerrors.CodeInvalidInteraction, "invalid identity provider secret")
	}
	return nil
}
