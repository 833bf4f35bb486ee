package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"policywriter/internal/audit"
	"policywriter/internal/collaborator"
	"policywriter/internal/platform/config"
	"policywriter/internal/platform/httpserver"
	"policywriter/internal/platform/logger"
	"policywriter/internal/platform/metrics"
	"policywriter/internal/questionnaire/handler"
	questionnaireMetrics "policywriter/internal/questionnaire/metrics"
	"policywriter/internal/questionnaire/service"
	"policywriter/internal/questionnaire/store"
	httptransport "policywriter/internal/transport/http"
)

const (
	shutdownTimeout   = 10 * time.Second
	auditQueueSize    = 1024
	auditPartitions   = 3
	auditReplication  = 1
	topicSetupTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "policywriter:", err)
		os.Exit(1)
	}
}

// run wires dependencies and blocks until a signal arrives or a component
// fails. Business logic lives in the internal service packages.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backend, err := collaborator.New(cfg.BackendURL,
		collaborator.WithTimeout(cfg.CollaboratorTimeout),
		collaborator.WithLogger(log),
		collaborator.WithMetrics(collaborator.NewMetrics(reg)),
	)
	if err != nil {
		return fmt.Errorf("build policy backend client: %w", err)
	}

	sessions, err := store.NewInMemorySessionStore(cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}

	publisher, worker, closeSink, err := buildAudit(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	qMetrics := questionnaireMetrics.New(reg)
	svc := service.New(sessions, backend,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(qMetrics),
		service.WithGenerateTimeout(cfg.CollaboratorTimeout),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Readiness: backend,
		// Submit makes two sequential collaborator calls.
		RequestTimeout: 2*cfg.CollaboratorTimeout + 5*time.Second,
		Routes:         []httptransport.RouteRegistrar{handler.New(svc, log)},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting policywriter",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"backend_url", cfg.BackendURL,
			"audit_forwarding", worker != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunSweeper(gctx, cfg.SweepInterval, func(n int) {
			qMetrics.AddSessionsEvicted(n)
			log.Debug("evicted expired sessions", "count", n)
		})
	})
	if worker != nil {
		// The worker stops once the publisher closes, after in-flight
		// generations have emitted their final events.
		g.Go(func() error {
			return worker.Run(context.WithoutCancel(gctx))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		svc.Wait()
		publisher.Close()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

// buildAudit returns the publisher every service emits to and, when Kafka
// brokers are configured, the worker forwarding to them.
func buildAudit(ctx context.Context, cfg config.Server, log *slog.Logger) (*audit.Publisher, *audit.Worker, func(), error) {
	events := audit.NewInMemoryStore(audit.WithCapacity(cfg.AuditStoreCapacity))
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewPublisher(events, audit.WithPublisherLogger(log)), nil, func() {}, nil
	}

	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build audit sink: %w", err)
	}
	setupCtx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	if err := sink.EnsureTopic(setupCtx, auditPartitions, auditReplication); err != nil {
		sink.Close()
		return nil, nil, nil, fmt.Errorf("ensure audit topic %s: %w", cfg.AuditTopic, err)
	}
	log.Info("forwarding audit events to kafka",
		"brokers", strings.Join(cfg.KafkaBrokers, ","),
		"topic", cfg.AuditTopic,
	)

	publisher := audit.NewPublisher(events,
		audit.WithForwarding(auditQueueSize),
		audit.WithPublisherLogger(log),
	)
	return publisher, audit.NewWorker(sink, publisher.Queue(), log), sink.Close, nil
}
