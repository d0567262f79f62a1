package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/cozmic/studysafe/internal/audit"
	"github.com/cozmic/studysafe/internal/classify"
	"github.com/cozmic/studysafe/internal/messaging"
	"github.com/cozmic/studysafe/internal/metrics"
	"github.com/cozmic/studysafe/internal/moderation"
	"github.com/cozmic/studysafe/internal/output"
	"github.com/cozmic/studysafe/internal/ratelimit"
	"github.com/cozmic/studysafe/internal/suspend"
)

func main() {
	log.Println("Starting StudySafe moderation service...")

	// --- Classifier ---
	classifierConfig := classify.DefaultConfig()
	classifierConfig.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("CLASSIFIER_BASE_URL"); v != "" {
		classifierConfig.BaseURL = v
	}
	if v := os.Getenv("CLASSIFIER_MODEL"); v != "" {
		classifierConfig.Model = v
	}
	if v := os.Getenv("CLASSIFIER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			classifierConfig.Timeout = d
		}
	}
	classifier := classify.NewClient(classifierConfig)

	// --- Engine options ---
	var engineOpts []moderation.Option

	// Rate limiting and suspensions are both opt-in and share one Redis
	// connection; quota policy is expected to be plan-based.
	rateLimitEnabled := os.Getenv("RATE_LIMIT_ENABLED") == "true"
	suspensionsEnabled := os.Getenv("SUSPENSIONS_ENABLED") == "true"

	var suspendStore *suspend.Store
	if rateLimitEnabled || suspensionsEnabled {
		redisAddr := "localhost:6379"
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			redisAddr = v
		}
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()
		defer rdb.Close()

		if rateLimitEnabled {
			engineOpts = append(engineOpts,
				moderation.WithRateLimit(ratelimit.NewRedisLimiter(rdb), ratelimit.RuleQuestion))
			log.Printf("  rate_limit:  enabled (redis %s)", redisAddr)
		}
		if suspensionsEnabled {
			suspendStore = suspend.NewStore(rdb)
			log.Printf("  suspensions: enabled (redis %s)", redisAddr)
		}
	}

	engine := moderation.NewEngine(classifier, engineOpts...)
	outputModerator := output.NewModerator(classifier)

	// --- Audit store (optional) ---
	var auditStore *audit.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("failed to open Postgres: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		if err := audit.Migrate(db); err != nil {
			log.Fatalf("failed to migrate audit schema: %v", err)
		}
		defer db.Close()
		auditStore = audit.NewStore(db)
		log.Printf("  audit:       enabled")
	} else {
		log.Printf("  audit:       disabled (no DATABASE_URL)")
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "studysafe-moderator"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Subscriptions ---
	err = natsClient.SubscribeModerationCheck(func(data []byte) {
		var req messaging.CheckMessage
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("[moderator] failed to unmarshal check request: %v", err)
			return
		}
		if req.RequestID == "" {
			req.RequestID = uuid.New().String()
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		verdict, wasSuspended := checkSuspension(ctx, suspendStore, req.RequesterID, req.Text)
		if !wasSuspended {
			verdict = engine.Moderate(ctx, moderation.Request{
				Text:        req.Text,
				RequesterID: req.RequesterID,
				Context:     req.Context,
			})
			recordStrike(ctx, suspendStore, req.RequesterID, &verdict)
		}
		cancel()
		metrics.ModerationLatency.WithLabelValues(audit.StageInput).Observe(time.Since(start).Seconds())

		recordInputMetrics(&verdict)
		if verdict.Flagged {
			log.Printf("[moderator] FLAGGED request=%s requester=%s severity=%s: %s",
				req.RequestID, req.RequesterID, verdict.Severity, verdict.Summary())
		} else {
			log.Printf("[moderator] CLEAN request=%s requester=%s", req.RequestID, req.RequesterID)
		}

		recordAudit(auditStore, &req, &verdict)

		resp, err := json.Marshal(messaging.ResultMessage{RequestID: req.RequestID, Verdict: verdict})
		if err != nil {
			log.Printf("[moderator] failed to marshal result: %v", err)
			return
		}
		if err := natsClient.PublishModerationResult(req.RequestID, resp); err != nil {
			log.Printf("[moderator] failed to publish result: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to moderation checks: %v", err)
	}

	err = natsClient.SubscribeOutputCheck(func(data []byte) {
		var req messaging.OutputCheckMessage
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("[moderator] failed to unmarshal output request: %v", err)
			return
		}
		if req.RequestID == "" {
			req.RequestID = uuid.New().String()
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		verdict := outputModerator.ModerateResponse(ctx, req.Text, req.OriginalQuestion)
		cancel()
		metrics.ModerationLatency.WithLabelValues(audit.StageOutput).Observe(time.Since(start).Seconds())

		recordOutputMetrics(&verdict, verdict.SanitizedText != req.Text)
		if verdict.Flagged {
			log.Printf("[moderator] OUTPUT FLAGGED request=%s requester=%s regenerate=%v: %s",
				req.RequestID, req.RequesterID, verdict.RequiresRegeneration, verdict.Reason)
		}

		recordOutputAudit(auditStore, &req, &verdict)

		resp, err := json.Marshal(messaging.OutputResultMessage{RequestID: req.RequestID, Verdict: verdict})
		if err != nil {
			log.Printf("[moderator] failed to marshal output result: %v", err)
			return
		}
		if err := natsClient.PublishOutputResult(req.RequestID, resp); err != nil {
			log.Printf("[moderator] failed to publish output result: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to output checks: %v", err)
	}

	// --- Metrics endpoint ---
	metricsAddr := ":9090"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}
	metricsServer := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()

	log.Printf("StudySafe moderation service running")
	log.Printf("  nats_url:     %s", natsConfig.URL)
	log.Printf("  metrics_addr: %s", metricsAddr)
	log.Printf("  classifier:   %s (%s)", classifierConfig.BaseURL, classifierConfig.Model)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsServer.Shutdown(shutdownCtx)
	natsClient.Close()
}

// checkSuspension returns a terminal blocked verdict when the requester
// is currently suspended. Store errors fail open: an outage must not
// lock students out, and the pipeline still screens the content.
func checkSuspension(ctx context.Context, store *suspend.Store, requesterID, text string) (moderation.Verdict, bool) {
	if store == nil || requesterID == "" {
		return moderation.Verdict{}, false
	}

	suspended, remaining, _, err := store.Status(ctx, requesterID)
	if err != nil {
		log.Printf("[moderator] suspension check failed for requester=%s: %v (failing open)", requesterID, err)
		return moderation.Verdict{}, false
	}
	if !suspended {
		return moderation.Verdict{}, false
	}

	return moderation.Verdict{
		Flagged:       true,
		SanitizedText: text,
		Reason: fmt.Sprintf("Your account is temporarily suspended. Please try again in %s.",
			remaining.Round(time.Minute)),
	}, true
}

// recordStrike counts a high-severity block against the requester and
// suspends after repeated offenses.
func recordStrike(ctx context.Context, store *suspend.Store, requesterID string, verdict *moderation.Verdict) {
	if store == nil || requesterID == "" {
		return
	}
	if verdict.Allowed || verdict.Severity != moderation.SeverityHigh {
		return
	}

	suspended, duration, err := store.RecordStrike(ctx, requesterID, verdict.Reason)
	if err != nil {
		log.Printf("[moderator] failed to record strike for requester=%s: %v", requesterID, err)
		return
	}
	if suspended {
		metrics.Suspensions.Inc()
		log.Printf("[moderator] SUSPENDED requester=%s for %s after repeated high-severity blocks",
			requesterID, duration)
	}
}

func recordInputMetrics(verdict *moderation.Verdict) {
	outcome := "allowed"
	if !verdict.Allowed {
		outcome = "blocked"
	}
	metrics.VerdictsTotal.WithLabelValues(audit.StageInput, outcome).Inc()
	if verdict.Flagged {
		metrics.FlaggedTotal.WithLabelValues(verdict.Severity.String()).Inc()
	}
	if cl := verdict.Data.Classifier; cl != nil && cl.FailClosed {
		metrics.ClassifierFailClosed.Inc()
	}
	if rl := verdict.Data.RateLimit; rl != nil && !rl.Allowed {
		metrics.RateLimited.Inc()
	}
}

func recordOutputMetrics(verdict *output.Verdict, redacted bool) {
	outcome := "allowed"
	if !verdict.Allowed {
		outcome = "blocked"
	}
	metrics.VerdictsTotal.WithLabelValues(audit.StageOutput, outcome).Inc()
	if redacted {
		metrics.PIIRedactions.Inc()
	}
	if verdict.RequiresRegeneration {
		metrics.RegenerationRequests.Inc()
	}
}

func recordAudit(store *audit.Store, req *messaging.CheckMessage, verdict *moderation.Verdict) {
	if store == nil {
		return
	}

	data, err := json.Marshal(verdict.Data)
	if err != nil {
		log.Printf("[moderator] failed to marshal audit data: %v", err)
		data = nil
	}

	event := &audit.Event{
		RequesterID:        req.RequesterID,
		Context:            req.Context,
		Stage:              audit.StageInput,
		Allowed:            verdict.Allowed,
		Flagged:            verdict.Flagged,
		Severity:           verdict.Severity.String(),
		Reason:             verdict.Reason,
		ChristianEducation: verdict.ChristianEducation,
		FailClosed:         verdict.Data.Classifier != nil && verdict.Data.Classifier.FailClosed,
		Data:               data,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Record(ctx, event); err != nil {
		log.Printf("[moderator] failed to record audit event: %v", err)
	}
}

func recordOutputAudit(store *audit.Store, req *messaging.OutputCheckMessage, verdict *output.Verdict) {
	if store == nil {
		return
	}

	event := &audit.Event{
		RequesterID: req.RequesterID,
		Stage:       audit.StageOutput,
		Allowed:     verdict.Allowed,
		Flagged:     verdict.Flagged,
		Severity:    "low",
		Reason:      verdict.Reason,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Record(ctx, event); err != nil {
		log.Printf("[moderator] failed to record output audit event: %v", err)
	}
}
