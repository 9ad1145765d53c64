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

	"marketplace-workers/internal/common/auth"
	"marketplace-workers/internal/common/aws"
	"marketplace-workers/internal/common/camunda"
	"marketplace-workers/internal/common/config"
	"marketplace-workers/internal/common/database"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/observability"
	"marketplace-workers/internal/jobstore"
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/notify"
	"marketplace-workers/internal/relevance"
	"marketplace-workers/internal/search"
	"marketplace-workers/pkg/registry"

	// Job Workers (3)
	bj "marketplace-workers/internal/workers/jobs/browse-jobs"
	fsj "marketplace-workers/internal/workers/jobs/find-similar-jobs"
	pj "marketplace-workers/internal/workers/jobs/post-job"

	// Application Workers (3)
	da "marketplace-workers/internal/workers/application/decide-application"
	sa "marketplace-workers/internal/workers/application/submit-application"
	wa "marketplace-workers/internal/workers/application/withdraw-application"

	// Messaging Workers (1)
	sm "marketplace-workers/internal/workers/messaging/send-message"

	// Auth Workers (1)
	sg "marketplace-workers/internal/workers/auth/signin-google"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load configuration", zap.Error(err))
	}
	zapLog.Info("configuration loaded",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("failed to load activity registry", zap.Error(err))
	}
	zapLog.Info("activity registry loaded",
		zap.String("version", reg.Version),
		zap.Int("activities", len(reg.Activities)),
	)

	// --- Connect to Camunda/Zeebe ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var connErr error
		zeebeClient, connErr = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return connErr
	}, 10, 2*time.Second, zapLog, "zeebe connection")
	if err != nil {
		zapLog.Fatal("could not connect to Zeebe broker", zap.Error(err))
	}
	defer zeebeClient.Close()
	zapLog.Info("connected to Zeebe broker", zap.String("address", cfg.Camunda.BrokerAddress))

	// --- Connect to PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var connErr error
		pg, connErr = database.NewPostgres(cfg.Database.Postgres)
		return connErr
	}, 15, 2*time.Second, zapLog, "postgres connection")
	if err != nil {
		zapLog.Fatal("could not connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Postgres.Host))

	// --- Connect to Elasticsearch ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var connErr error
		es, connErr = database.NewElasticsearch(cfg.Database.Elasticsearch)
		return connErr
	}, 15, 2*time.Second, zapLog, "elasticsearch connection")
	if err != nil {
		zapLog.Fatal("could not connect to Elasticsearch", zap.Error(err))
	}
	zapLog.Info("connected to Elasticsearch", zap.Strings("addresses", cfg.Database.Elasticsearch.Addresses))

	// --- Connect to Redis ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var connErr error
		rds, connErr = database.NewRedis(cfg.Database.Redis)
		return connErr
	}, 10, 2*time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("connected to Redis", zap.String("address", cfg.Database.Redis.Address))

	// --- Domain Services ---
	jobStore := jobstore.NewStore(pg, log)
	mirrorStore := mirror.NewStore(rds.Client, log)
	searchIndex := search.NewIndex(es, log, cfg.Search.JobsIndex)
	finder := relevance.NewFinder(jobStore, log, cfg.Relevance.MaxResults, cfg.Relevance.RecentLimit)
	verifier := auth.NewGoogleVerifier(cfg.Auth.Google.ClientID, cfg.Auth.Google.Audiences...)

	var emailSender notify.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, sesErr := aws.NewSESClient(context.Background(), cfg.Integrations.AWS.Region)
		if sesErr != nil {
			zapLog.Fatal("could not create SES client", zap.Error(sesErr))
		}
		emailSender = sesClient
	}
	var pushPublisher notify.PushPublisher
	if cfg.Notifications.Push.Enabled {
		snsClient, snsErr := aws.NewSNSClient(context.Background(), cfg.Integrations.AWS.Region)
		if snsErr != nil {
			zapLog.Fatal("could not create SNS client", zap.Error(snsErr))
		}
		pushPublisher = snsClient
	}
	notifier := notify.NewNotifier(emailSender, pushPublisher, notify.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		PushEnabled:  cfg.Notifications.Push.Enabled,
		TopicARN:     cfg.Integrations.AWS.SNS.TopicARN,
	}, log)

	// --- Reconciliation Sweeper ---
	sweeper := mirror.NewSweeper(mirrorStore, jobStore, log,
		time.Duration(cfg.Sync.PushTimeout)*time.Millisecond)
	if err := sweeper.Start(cfg.Sync.Schedule); err != nil {
		zapLog.Fatal("could not start sync sweeper", zap.Error(err))
	}
	defer sweeper.Stop()
	zapLog.Info("sync sweeper started", zap.String("schedule", cfg.Sync.Schedule))

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	startWorker := func(taskType string, handler camunda.JobHandler) {
		if reg.FindByTaskType(taskType) == nil {
			zapLog.Warn("enabled worker has no activity registry entry", zap.String("taskType", taskType))
		}
		wcfg := cfg.Workers[taskType]
		w := camunda.NewWorker(zeebeClient.GetClient(), taskType, wcfg.MaxJobsActive, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	workerTimeout := func(taskType string) time.Duration {
		return time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond
	}

	// Job Workers (3)
	if cfg.Workers[pj.TaskType].Enabled {
		handler := pj.NewHandler(
			&pj.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[pj.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(pj.TaskType),
			},
			jobStore, searchIndex, mirrorStore, log,
		)
		startWorker(pj.TaskType, handler)
	}

	if cfg.Workers[fsj.TaskType].Enabled {
		handler := fsj.NewHandler(
			&fsj.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[fsj.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(fsj.TaskType),
				MaxResults:    cfg.Relevance.MaxResults,
				RecentLimit:   cfg.Relevance.RecentLimit,
			},
			jobStore, finder, log,
		)
		startWorker(fsj.TaskType, handler)
	}

	if cfg.Workers[bj.TaskType].Enabled {
		handler := bj.NewHandler(
			&bj.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[bj.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(bj.TaskType),
				MaxResults:    bj.DefaultConfig().MaxResults,
			},
			searchIndex, log,
		)
		startWorker(bj.TaskType, handler)
	}

	// Application Workers (3)
	if cfg.Workers[sa.TaskType].Enabled {
		handler := sa.NewHandler(
			&sa.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[sa.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(sa.TaskType),
			},
			jobStore, mirrorStore, notifier, log,
		)
		startWorker(sa.TaskType, handler)
	}

	if cfg.Workers[da.TaskType].Enabled {
		handler := da.NewHandler(
			&da.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[da.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(da.TaskType),
			},
			jobStore, searchIndex, notifier, log,
		)
		startWorker(da.TaskType, handler)
	}

	if cfg.Workers[wa.TaskType].Enabled {
		handler := wa.NewHandler(
			&wa.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[wa.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(wa.TaskType),
			},
			jobStore, mirrorStore, log,
		)
		startWorker(wa.TaskType, handler)
	}

	// Messaging Workers (1)
	if cfg.Workers[sm.TaskType].Enabled {
		handler := sm.NewHandler(
			&sm.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[sm.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(sm.TaskType),
				MaxBodyLength: sm.DefaultConfig().MaxBodyLength,
			},
			jobStore, mirrorStore, notifier, log,
		)
		startWorker(sm.TaskType, handler)
	}

	// Auth Workers (1)
	if cfg.Workers[sg.TaskType].Enabled {
		handler := sg.NewHandler(
			&sg.Config{
				Enabled:       true,
				MaxJobsActive: cfg.Workers[sg.TaskType].MaxJobsActive,
				Timeout:       workerTimeout(sg.TaskType),
				DefaultRole:   sg.DefaultConfig().DefaultRole,
			},
			verifier, jobStore, log,
		)
		startWorker(sg.TaskType, handler)
	}

	zapLog.Info("all workers registered", zap.Int("count", len(workers)))

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
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("health/metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("worker manager stopped gracefully")
}
