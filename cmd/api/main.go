// Package main implements the support assistant API server: the
// Chatwoot webhook, knowledge base management, and health endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/aibroker/support-assistant/engine/assist"
	"github.com/aibroker/support-assistant/engine/corpus"
	"github.com/aibroker/support-assistant/engine/dispatch"
	"github.com/aibroker/support-assistant/engine/domain"
	"github.com/aibroker/support-assistant/engine/index"
	"github.com/aibroker/support-assistant/engine/semantic"
	"github.com/aibroker/support-assistant/internal/config"
	"github.com/aibroker/support-assistant/pkg/chatwoot"
	"github.com/aibroker/support-assistant/pkg/metrics"
	"github.com/aibroker/support-assistant/pkg/mid"
	"github.com/aibroker/support-assistant/pkg/ollama"
)

var met = metrics.New()

var (
	mWebhook = func(outcome string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("assist_webhook_events_total", "outcome", outcome), "Webhook events by dispatch outcome")
	}
	mProcessed = func(result string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("assist_messages_processed_total", "result", result), "Processed messages by result")
	}
	mProcessDur = met.Histogram("assist_process_duration_seconds", "Retrieval and delivery time per message", nil)
	mRebuildDur = met.Histogram("assist_kb_rebuild_duration_seconds", "Knowledge base rebuild time", nil)
	mRebuilds   = func(result string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("assist_kb_rebuilds_total", "result", result), "Knowledge base rebuilds by result")
	}
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met.ServeAsync(9090)

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	embedder := ollama.NewEmbedClient(cfg.Ollama.URL, cfg.Ollama.Model)
	channel := chatwoot.New(cfg.Chatwoot.BaseURL, cfg.Chatwoot.APIToken, cfg.Chatwoot.AccountID)

	if !channel.Health(ctx) {
		logger.Warn("chatwoot unreachable at startup, continuing")
	}

	// --- Build engine ---
	loader := corpus.NewLoader(cfg.CorpusPath, logger)
	indexer := index.New(loader, embedder, vectorStore, logger)

	svc := assist.New(embedder, vectorStore, channel,
		assist.Options{TopK: cfg.Assistant.TopK, Private: cfg.Assistant.Private}, logger)

	// --- Initial index build ---
	if err := indexer.Rebuild(ctx); err != nil {
		// The server still starts: operators can fix the corpus and
		// POST /kb/reload without a restart.
		logger.Error("initial index build failed", "err", err)
	}

	// --- Background job consumer ---
	sub, err := dispatch.StartConsumer(nc, meteredProcessor{svc}, logger)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer sub.Unsubscribe()

	queue := dispatch.NewNATSQueue(nc)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", handleRoot)
	mux.HandleFunc("GET /health", handleHealth(svc))
	mux.HandleFunc("POST /webhook/chatwoot", handleWebhook(queue, logger))
	mux.HandleFunc("POST /kb/reload", handleReload(indexer, logger))
	mux.HandleFunc("GET /kb/info", handleInfo(indexer, logger))
	mux.HandleFunc("GET /config", handleGetConfig(svc))
	mux.HandleFunc("PUT /config", handleUpdateConfig(svc))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("support-assistant"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// meteredProcessor counts processing outcomes around the engine.
type meteredProcessor struct {
	svc *assist.Service
}

func (p meteredProcessor) Process(ctx context.Context, conversationID int64, text string) bool {
	start := time.Now()
	ok := p.svc.Process(ctx, conversationID, text)
	mProcessDur.Since(start)
	if ok {
		mProcessed("delivered").Inc()
	} else {
		mProcessed("failed").Inc()
	}
	return ok
}

// --- Handlers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Support Assistant API is running",
		"endpoints": map[string]string{
			"health":    "/health",
			"webhook":   "/webhook/chatwoot",
			"kb_reload": "/kb/reload",
			"kb_info":   "/kb/info",
			"config":    "/config",
		},
	})
}

func handleHealth(svc *assist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := svc.HealthCheck(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"service":    "support-assistant",
			"status":     report.Overall,
			"components": report.Components,
		})
	}
}

func handleWebhook(queue dispatch.Queue, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev domain.ConversationEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid webhook body"})
			return
		}

		decision := dispatch.Classify(ev)
		mWebhook(decision.String()).Inc()
		if decision != dispatch.Accept {
			logger.Info("webhook ignored", "event", ev.Event, "reason", decision.String())
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "ignored",
				"reason": decision.String(),
			})
			return
		}

		job := dispatch.JobFrom(ev)
		if err := queue.Enqueue(r.Context(), job); err != nil {
			logger.Error("enqueue failed", "conversation_id", job.ConversationID, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		logger.Info("webhook accepted", "conversation_id", job.ConversationID)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "processing",
			"conversation_id": job.ConversationID,
		})
	}
}

func handleReload(indexer *index.Indexer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := indexer.Rebuild(r.Context())
		mRebuildDur.Since(start)
		switch {
		case errors.Is(err, index.ErrReloadBusy):
			mRebuilds("busy").Inc()
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case err != nil:
			mRebuilds("failed").Inc()
			logger.Error("kb reload failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			mRebuilds("success").Inc()
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "success",
				"message": "knowledge base reloaded",
			})
		}
	}
}

func handleInfo(indexer *index.Indexer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		info, err := indexer.Info()
		if err != nil {
			logger.Error("kb info failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": info})
	}
}

func handleGetConfig(svc *assist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		opts := svc.Settings()
		writeJSON(w, http.StatusOK, map[string]any{
			"top_k":            opts.TopK,
			"private_messages": opts.Private,
			"status":           "active",
		})
	}
}

// configUpdate is the PUT /config body; nil fields are left unchanged.
type configUpdate struct {
	TopK    *int  `json:"top_k"`
	Private *bool `json:"private"`
}

func handleUpdateConfig(svc *assist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd configUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid config body"})
			return
		}
		opts := svc.UpdateSettings(upd.TopK, upd.Private)
		writeJSON(w, http.StatusOK, map[string]any{
			"top_k":            opts.TopK,
			"private_messages": opts.Private,
			"status":           "updated",
		})
	}
}
