// Package httptransport exposes the attempt lifecycle over HTTP. It is the
// assembly boundary: it owns request parsing, attempt persistence between
// handshake turns, and session token issuance; the decision logic stays in
// the pipeline and steps packages.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"riskgate/internal/attempt"
	"riskgate/internal/pipeline"
	"riskgate/internal/session"
	dErrors "riskgate/pkg/domain-errors"
	"riskgate/pkg/platform/httputil"
	"riskgate/pkg/platform/sentinel"
)

// Handler wires attempt endpoints to the pipeline runner.
type Handler struct {
	runner     *pipeline.Runner
	attempts   attempt.Store
	tokens     *session.TokenIssuer
	attemptTTL time.Duration
	logger     *slog.Logger
}

// New constructs an attempt handler with its dependencies.
func New(runner *pipeline.Runner, attempts attempt.Store, tokens *session.TokenIssuer, attemptTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		runner:     runner,
		attempts:   attempts,
		tokens:     tokens,
		attemptTTL: attemptTTL,
		logger:     logger,
	}
}

// Register mounts attempt endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attempts", h.HandleStart)
	r.Post("/attempts/{attemptID}/callbacks", h.HandleResume)
}

// HandleStart handles POST /attempts: begins an attempt and runs the
// pipeline until it suspends for the client or completes.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StartAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	state := &pipeline.AuthContext{
		Username: req.Username,
		Realm:    req.Realm,
		ClientIP: clientIP(r),
		Headers:  flattenHeaders(r.Header),
	}

	if h.logger != nil {
		ua := useragent.New(r.UserAgent())
		browser, _ := ua.Browser()
		h.logger.InfoContext(ctx, "attempt started",
			"username", req.Username,
			"realm", req.Realm,
			"client_ip", state.ClientIP,
			"browser", browser,
			"os", ua.OS(),
			"mobile", ua.Mobile(),
		)
	}

	result, err := h.runner.Run(ctx, state, 0, nil)
	if err != nil {
		h.writeStepFailure(w, r, err)
		return
	}

	if !result.Suspended {
		h.writeCompletion(w, r, state, result.Outcome)
		return
	}

	att := attempt.New(state, h.attemptTTL)
	att.NextStage = result.NextStage
	if err := h.attempts.Save(ctx, att); err != nil {
		h.logError(r, "save attempt", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "save attempt"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AttemptResponse{
		AttemptID: att.ID,
		Callbacks: toCallbackOutputs(result.Callbacks),
	})
}

// HandleResume handles POST /attempts/{attemptID}/callbacks: feeds the
// collected values back into the suspended attempt.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "attemptID")

	var req ResumeAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	att, err := h.attempts.Find(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown or expired attempt"))
			return
		}
		h.logError(r, "find attempt", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "find attempt"))
		return
	}

	callbacks := make([]pipeline.Callback, 0, len(req.Callbacks))
	for _, cb := range req.Callbacks {
		callbacks = append(callbacks, pipeline.HiddenValueCallback{Name: cb.Name, Value: cb.Value})
	}

	result, err := h.runner.Run(ctx, att.State, att.NextStage, callbacks)
	if err != nil {
		// A failed attempt must not be resumable.
		_ = h.attempts.Delete(ctx, att.ID)
		h.writeStepFailure(w, r, err)
		return
	}

	if result.Suspended {
		att.NextStage = result.NextStage
		if err := h.attempts.Save(ctx, att); err != nil {
			h.logError(r, "save attempt", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "save attempt"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, AttemptResponse{
			AttemptID: att.ID,
			Callbacks: toCallbackOutputs(result.Callbacks),
		})
		return
	}

	_ = h.attempts.Delete(ctx, att.ID)
	h.writeCompletion(w, r, att.State, result.Outcome)
}

// writeCompletion reports a finished attempt. Allow outcomes carry a signed
// session token.
func (h *Handler) writeCompletion(w http.ResponseWriter, r *http.Request, state *pipeline.AuthContext, outcome string) {
	resp := AttemptResponse{Outcome: outcome}

	if outcome == "allow" && h.tokens != nil {
		token, err := h.tokens.Issue(state.Username, state.Realm, outcome)
		if err != nil {
			h.logError(r, "issue session token", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token"))
			return
		}
		resp.SessionToken = token
	}

	if h.logger != nil {
		h.logger.InfoContext(r.Context(), "attempt completed",
			"username", state.Username,
			"realm", state.Realm,
			"outcome", outcome,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeStepFailure maps any pipeline failure onto a generic cannot-continue
// response; internals are logged, never returned.
func (h *Handler) writeStepFailure(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "pipeline failed", err)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "authentication cannot continue"))
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	if h.logger != nil {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// flattenHeaders keeps the first value of each header, the form the risk
// service expects.
func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
