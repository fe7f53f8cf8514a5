// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"immigration-workers/internal/catalog"
	"immigration-workers/internal/common/aws"
	"immigration-workers/internal/common/camunda"
	"immigration-workers/internal/common/config"
	"immigration-workers/internal/common/database"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/observability"
	"immigration-workers/internal/profile"
	"immigration-workers/internal/recommendation"

	// Recommendation Pipeline Workers (4)
	ag "immigration-workers/internal/workers/recommendation/analyze-gaps"
	gr "immigration-workers/internal/workers/recommendation/generate-recommendations"
	mp "immigration-workers/internal/workers/recommendation/match-programs"
	rr "immigration-workers/internal/workers/recommendation/rank-recommendations"

	// Data Access Workers (1)
	sp "immigration-workers/internal/workers/data-access/search-programs"

	// Communication Workers (1)
	nr "immigration-workers/internal/workers/communication/notify-recommendations"
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

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      time.Duration(cfg.Camunda.Timeout) * time.Millisecond,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
			RetryConfig:            camunda.DefaultRetryConfig,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared Recommendation Pipeline ---
	cacheTTL := time.Duration(cfg.Recommendation.CatalogCacheTTL) * time.Second
	catalogStore := catalog.NewStore(pg.DB, redis.Client, cacheTTL, log)
	profileStore := profile.NewStore(pg.DB, redis.Client, cacheTTL, log)

	matcher := recommendation.NewMatcher(cfg.Recommendation.Matcher, log)
	gapAnalyzer := recommendation.NewGapAnalyzer(log)
	ranker := recommendation.NewRanker(cfg.Recommendation.Ranker, log)
	engine := recommendation.NewEngine(
		profileStore,
		catalogStore,
		matcher,
		gapAnalyzer,
		ranker,
		cfg.Recommendation.Engine,
		log,
	)

	zapLog.Info("Recommendation pipeline initialized")

	var workers []*camunda.Worker

	// --- 1. Recommendation Pipeline Workers (4) ---
	if cfg.Workers[gr.TaskType].Enabled {
		handler := gr.NewHandler(
			&gr.Config{
				Timeout: time.Duration(cfg.Workers[gr.TaskType].Timeout) * time.Millisecond,
			},
			engine, log,
		)
		workers = append(workers, startWorker(camundaClient, gr.TaskType, cfg.Workers[gr.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[mp.TaskType].Enabled {
		handler := mp.NewHandler(
			&mp.Config{
				Timeout: time.Duration(cfg.Workers[mp.TaskType].Timeout) * time.Millisecond,
			},
			profileStore, catalogStore, matcher, log,
		)
		workers = append(workers, startWorker(camundaClient, mp.TaskType, cfg.Workers[mp.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[ag.TaskType].Enabled {
		handler := ag.NewHandler(
			&ag.Config{
				Timeout: time.Duration(cfg.Workers[ag.TaskType].Timeout) * time.Millisecond,
			},
			profileStore, gapAnalyzer, log,
		)
		workers = append(workers, startWorker(camundaClient, ag.TaskType, cfg.Workers[ag.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[rr.TaskType].Enabled {
		handler := rr.NewHandler(
			&rr.Config{
				Timeout: time.Duration(cfg.Workers[rr.TaskType].Timeout) * time.Millisecond,
			},
			ranker, log,
		)
		workers = append(workers, startWorker(camundaClient, rr.TaskType, cfg.Workers[rr.TaskType], handler.Handle, zapLog))
	}

	// --- 2. Data Access Workers (1) ---
	if cfg.Workers[sp.TaskType].Enabled {
		spCfg := sp.LoadConfig()
		spCfg.Index = cfg.Recommendation.ProgramsIndex
		spCfg.Timeout = time.Duration(cfg.Workers[sp.TaskType].Timeout) * time.Millisecond
		handler := sp.NewHandler(spCfg, esClient.Client, log)
		workers = append(workers, startWorker(camundaClient, sp.TaskType, cfg.Workers[sp.TaskType], handler.Handle, zapLog))
	}

	// --- 3. Communication Workers (1) ---
	if cfg.Workers[nr.TaskType].Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}

		nrCfg := nr.DefaultConfig()
		nrCfg.Timeout = time.Duration(cfg.Workers[nr.TaskType].Timeout) * time.Millisecond
		nrCfg.EmailEnabled = cfg.Notifications.Email.Enabled
		nrCfg.FromEmail = cfg.Notifications.Email.FromEmail
		nrCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
		nrCfg.SMSSenderID = cfg.Notifications.SMS.DefaultSMSSenderID
		if err := nrCfg.Validate(); err != nil {
			zapLog.Fatal("invalid notify-recommendations config", zap.Error(err))
		}

		handler := nr.NewHandler(nrCfg, sesClient, snsClient, log)
		workers = append(workers, startWorker(camundaClient, nr.TaskType, cfg.Workers[nr.TaskType], handler.Handle, zapLog))
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	// Drain subscriptions before dropping the broker connection.
	for _, w := range workers {
		if w != nil {
			w.Close()
		}
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.Worker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	return client.NewWorker(taskType, wcfg.MaxJobsActive, time.Duration(wcfg.Timeout)*time.Millisecond, handlerFunc, log)
}
