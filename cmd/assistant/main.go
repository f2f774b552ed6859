// cmd/assistant/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hospital-assistant/internal/assistant"
	"hospital-assistant/internal/cityalias"
	commonaws "hospital-assistant/internal/common/aws"
	"hospital-assistant/internal/common/config"
	"hospital-assistant/internal/common/database"
	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/common/observability"
	"hospital-assistant/internal/directory"
	"hospital-assistant/internal/escalation"
	"hospital-assistant/internal/match"
	"hospital-assistant/internal/models"
	"hospital-assistant/internal/providers/chat"
	"hospital-assistant/internal/providers/stt"
	"hospital-assistant/internal/providers/tts"
	"hospital-assistant/internal/session"
	"hospital-assistant/internal/tools"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting hospital assistant...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("hospital-assistant")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- City alias resolver ---
	cities, err := cityalias.NewResolver(models.DefaultCityAliasGroups())
	if err != nil {
		zapLog.Fatal("city alias table invalid", zap.Error(err))
	}

	// --- Directory source ---
	var source directory.Source
	switch cfg.Directory.Source {
	case "csv":
		source = directory.NewCSVSource(cfg.Directory.CSV, log)
	case "postgres":
		var db *sql.DB
		err = retryWithBackoff(func() error {
			var err error
			db, err = database.NewPostgres(cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer db.Close()
		source = directory.NewPostgresSource(db, cfg.Directory.Table, log)
	default:
		zapLog.Fatal("unknown directory source", zap.String("source", cfg.Directory.Source))
	}

	// --- Directory load with retry ---
	index := directory.NewIndex()
	err = retryWithBackoff(func() error {
		records, err := source.Records(ctx)
		if err != nil {
			return err
		}
		index.Load(records)
		return nil
	}, 10, 2*time.Second, zapLog, "Directory load")
	if err != nil {
		zapLog.Fatal("directory load failed after retries", zap.Error(err))
	}
	if index.Len() == 0 {
		// Lookups answer as not-found until a reload brings records in.
		zapLog.Warn("directory is empty",
			zap.Error(commonerrors.NewDirectoryEmptyError(cfg.Directory.Source)))
	}
	zapLog.Info("Directory loaded", zap.Int("records", index.Len()))

	engine := match.NewEngine(index, cities)
	registry := tools.NewRegistry(engine, log)

	// --- Session store ---
	var sessions session.Store
	sessionOpts := session.OptionsFromConfig(cfg.Sessions)
	switch cfg.Sessions.Backend {
	case "redis":
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient.GetClient(), sessionOpts, log)
		zapLog.Info("Using redis session backend", zap.String("address", cfg.Database.Redis.Address))
	default:
		memStore := session.NewMemoryStore(sessionOpts, log)
		defer memStore.Close()
		sessions = memStore
		zapLog.Info("Using in-memory session backend",
			zap.Int("maxUsers", cfg.Sessions.MaxUsers),
			zap.Int("maxTurns", cfg.Sessions.MaxTurns),
		)
	}

	// --- Escalation ---
	var notifier escalation.Notifier = escalation.NopNotifier{}
	switch cfg.Escalation.Transport {
	case "sns":
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Escalation.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifier = escalation.NewSNSNotifier(snsClient, cfg.Escalation.HumanAgentNumber, log)
	case "ses":
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Escalation.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		notifier = escalation.NewSESNotifier(sesClient, cfg.Escalation.FromAddress, cfg.Escalation.ToAddress, log)
	default:
		zapLog.Info("Escalation transport disabled")
	}
	trigger := escalation.NewTrigger(notifier, sessions, config.GetDuration(cfg.Escalation.NotifyTimeout), log)

	// --- Providers ---
	model := chat.NewClient(cfg.Providers.Chat, log)
	transcriber := stt.NewDeepgramClient(cfg.Providers.Deepgram, log)
	synthesizer, err := tts.New(cfg.Providers.TTS, log)
	if err != nil {
		zapLog.Fatal("tts provider failed", zap.Error(err))
	}

	svc := assistant.NewService(engine, registry, sessions, trigger, model, obs, log)

	// --- HTTP API, Health & Metrics Server ---
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/chat", handleChat(svc, zapLog))
	http.HandleFunc("/voice", handleVoice(svc, transcriber, synthesizer, zapLog))

	server := &http.Server{Addr: cfg.Server.MetricsAddress}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Hospital assistant stopped gracefully")
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func handleChat(svc *assistant.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			req.UserID = "default"
		}

		text := svc.Chat(r.Context(), req.UserID, req.Message)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(chatResponse{Response: text}); err != nil {
			log.Error("failed to write chat response", zap.Error(err))
		}
	}
}

// handleVoice transcribes the posted audio, runs a chat turn, and returns
// the synthesized spoken reply.
func handleVoice(svc *assistant.Service, transcriber stt.Transcriber, synthesizer tts.Synthesizer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			userID = "default"
		}

		audio, err := io.ReadAll(r.Body)
		if err != nil || len(audio) == 0 {
			http.Error(w, "missing audio body", http.StatusBadRequest)
			return
		}

		text, err := transcriber.Transcribe(r.Context(), audio, r.Header.Get("Content-Type"))
		if err != nil {
			log.Error("transcription failed", zap.Error(err))
			http.Error(w, "transcription failed", http.StatusBadGateway)
			return
		}

		reply := svc.Chat(r.Context(), userID, text)

		speech, err := synthesizer.Synthesize(r.Context(), reply)
		if err != nil {
			log.Error("synthesis failed", zap.Error(err))
			// Fall back to text so the caller still gets the answer.
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatResponse{Response: reply})
			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("X-Response-Text", reply)
		if _, err := w.Write(speech); err != nil {
			log.Error("failed to write audio response", zap.Error(err))
		}
	}
}
