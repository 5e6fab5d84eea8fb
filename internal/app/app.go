package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bhavana10-bit/scantrack-guardian/internal/attendance"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/config"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/db"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/health"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/kafka"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/logger"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/messaging"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/metrics"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/middleware"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/ocr"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/scan"
	"github.com/Bhavana10-bit/scantrack-guardian/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// producer is satisfied by both the NATS and Kafka producers.
type producer interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	logger        *slog.Logger
	database      *bun.DB
	producer      producer
	meterProvider *sdkmetric.MeterProvider
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	ctx := context.Background()

	meterProvider, err := telemetry.InitMeterProvider(ctx, ServiceName, Version, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize OTel metrics, continuing without export", "error", err)
	} else {
		app.meterProvider = meterProvider
	}

	m, err := metrics.New(ServiceName, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize metrics collectors", "error", err)
		m = metrics.NewMock()
	}

	database := db.New(cfg.Database)
	app.database = database

	if err := db.RunMigrations(ctx, database, (*attendance.Record)(nil), (*scan.Scan)(nil)); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	// Apply CORS middleware globally
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	// Event producer (NATS or Kafka per config; the engine works without one)
	app.producer = newProducer(cfg.Messaging, slogLogger)

	// Attendance: reconciliation, history, stats, reports
	attendanceRepo := attendance.NewRepository(database, m)
	attendanceService := attendance.NewService(attendanceRepo, publisherOrNil(app.producer), slogLogger, m)
	attendanceHandler := attendance.NewHandler(attendanceService, slogLogger)

	// OCR ingestion pipeline
	ocrClient := ocr.NewGatewayClient(cfg.OCR, slogLogger)
	scanRepo := scan.NewRepository(database, m)
	scanService := scan.NewService(scanRepo, attendanceRepo, ocrClient, publisherOrNil(app.producer), slogLogger, m)
	scanHandler := scan.NewHandler(scanService, slogLogger)

	app.router.Route("/api", func(r chi.Router) {
		attendanceHandler.RegisterRoutes(r)
		scanHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

func newProducer(cfg config.MessagingConfig, slogLogger *slog.Logger) producer {
	switch cfg.Driver {
	case "nats":
		p, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, slogLogger)
		if err != nil {
			slogLogger.Warn("failed to initialize NATS producer", "error", err)
			return nil
		}
		return p
	case "kafka":
		p, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			slogLogger.Warn("failed to initialize kafka producer", "error", err)
			return nil
		}
		return p
	default:
		slogLogger.Info("event publishing disabled", "driver", cfg.Driver)
		return nil
	}
}

// publisherOrNil avoids handing services a non-nil interface holding a nil
// concrete producer.
func publisherOrNil(p producer) attendance.Publisher {
	if p == nil {
		return nil
	}
	return p
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close event producer", "error", err)
		}
	}
	if a.meterProvider != nil {
		if err := telemetry.Shutdown(ctx, a.meterProvider, a.logger); err != nil {
			a.logger.Warn("failed to shut down metrics", "error", err)
		}
	}
	db.Close(a.database)

	return a.server.Shutdown(ctx)
}
