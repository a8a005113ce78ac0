package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"riskgate/internal/attempt"
	"riskgate/internal/castle"
	"riskgate/internal/identity"
	"riskgate/internal/pipeline"
	"riskgate/internal/platform/config"
	"riskgate/internal/platform/httpserver"
	"riskgate/internal/platform/logger"
	platformredis "riskgate/internal/platform/redis"
	"riskgate/internal/session"
	"riskgate/internal/steps"
	stepmetrics "riskgate/internal/steps/metrics"
	httptransport "riskgate/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// The pipeline here is the canonical sequence: collection handshake, risk
// call, action routing. Business logic lives in the internal packages.
func main() {
	level := slog.LevelInfo
	if os.Getenv("RISKGATE_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	log := logger.New(level)

	cfg := config.FromEnv()
	castleCfg := config.CastleFromEnv()

	runner, err := buildPipeline(castleCfg, log)
	if err != nil {
		log.Error("assemble pipeline", "error", err)
		os.Exit(1)
	}

	attempts, closeStore, err := buildAttemptStore(log)
	if err != nil {
		log.Error("assemble attempt store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	tokens, err := session.NewTokenIssuer(cfg.JWTSigningKey, cfg.SessionTTL)
	if err != nil {
		log.Error("assemble token issuer", "error", err)
		os.Exit(1)
	}

	handler := httptransport.New(runner, attempts, tokens, config.AttemptTTL, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info("starting riskgate", "addr", cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildPipeline assembles the risk-decision stages from configuration.
func buildPipeline(castleCfg config.Castle, log *slog.Logger) (*pipeline.Runner, error) {
	client, err := castle.NewHTTPClient(castle.ClientConfig{
		APISecret:       castleCfg.APISecret,
		BaseURL:         castleCfg.BaseURL,
		Timeout:         castleCfg.Timeout,
		LogHTTPRequests: castleCfg.LogHTTPRequests,
	}, castle.WithLogger(log))
	if err != nil {
		return nil, err
	}

	// The directory is a host-platform collaborator. The standalone
	// assembly starts empty; unresolved identities fall back to attempt
	// state when building payloads.
	directory := identity.NewInMemoryDirectory()

	filter := castle.NewHeaderFilter(castleCfg.AllowListedHeaders, castleCfg.DenyListedHeaders)
	builder, err := steps.NewPayloadBuilder(directory, filter, steps.WithPayloadLogger(log))
	if err != nil {
		return nil, err
	}

	m := stepmetrics.New()

	profiler, err := steps.NewProfilerStep(castleCfg.AppID, castleCfg.CDNURI, steps.WithProfilerLogger(log))
	if err != nil {
		return nil, err
	}

	risk, err := steps.NewRiskStep(client, builder, steps.RequestConfig{
		Event:    castle.EventLogin,
		Status:   castle.StatusSucceeded,
		Failover: castle.FailoverAllow,
	}, steps.WithRequestLogger(log), steps.WithRequestMetrics(m))
	if err != nil {
		return nil, err
	}

	action := steps.NewActionStep(steps.WithActionLogger(log), steps.WithActionMetrics(m))

	return pipeline.NewRunner([]pipeline.Stage{
		{Step: profiler},
		{Step: risk},
		{Step: action, StopOn: []string{steps.OutcomeDeny, steps.OutcomeChallenge}},
	}, pipeline.WithLogger(log))
}

// buildAttemptStore prefers Redis when configured and falls back to the
// in-memory store for single-instance runs.
func buildAttemptStore(log *slog.Logger) (attempt.Store, func(), error) {
	redisClient, err := platformredis.New(config.RedisFromEnv())
	if err != nil {
		return nil, nil, err
	}
	if redisClient == nil {
		log.Info("redis not configured, using in-memory attempt store")
		return attempt.NewInMemory(), func() {}, nil
	}
	return attempt.NewRedis(redisClient.Client), func() { _ = redisClient.Close() }, nil
}
