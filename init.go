package main

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendelo/parcelbridge/internal/batch"
	"github.com/vendelo/parcelbridge/internal/config"
	"github.com/vendelo/parcelbridge/internal/store"
	"github.com/vendelo/parcelbridge/internal/telemetry"
	"github.com/vendelo/parcelbridge/pkg/consign"
	"github.com/vendelo/parcelbridge/pkg/consign/parcelway"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// defaultStoreID is the store scope the development server seeds.
const defaultStoreID = 1

// App bundles the wired collaborators for one process.
type App struct {
	Config       *config.Config
	Logger       *otelzap.Logger
	Orchestrator *batch.Orchestrator
	Store        *store.Memory

	tracerShutdown func(context.Context) error
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) {
	if a.tracerShutdown != nil {
		a.tracerShutdown(ctx)
	}
	a.Logger.Sync()
}

func initApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Version = version

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var tracer trace.Tracer
	tracerShutdown := func(context.Context) error { return nil }
	if cfg.OTELEnabled {
		t, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			tracer = t
			tracerShutdown = shutdown
		}
	}

	carrier := parcelway.New(parcelway.Config{
		BaseURL: cfg.ParcelwayBaseURL,
		UseMock: cfg.ParcelwayUseMock,
	}, logger, tracer)

	orderStore := initStore(cfg)
	metrics := telemetry.NewMetrics()
	mailer := &logMailer{logger: logger}

	orchestrator := batch.New(
		orderStore,
		carrier,
		consign.DefaultRegistry(),
		mailer,
		logger,
		metrics,
		tracer,
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		Orchestrator:   orchestrator,
		Store:          orderStore,
		tracerShutdown: tracerShutdown,
	}, nil
}

// initStore builds the in-memory order store seeded from the environment
// configuration. A commerce-backed deployment swaps this for its own
// OrderStore implementation.
func initStore(cfg *config.Config) *store.Memory {
	m := store.NewMemory()
	m.SeedConfig(defaultStoreID, &store.Config{
		APIKey:     cfg.ParcelwayAPIKey,
		ExportMode: cfg.ExportMode,
		Defaults: consign.MerchantDefaults{
			Carrier:         cfg.DefaultCarrier,
			PackageType:     consign.ResolvePackageType(consign.PackageTypePackage, cfg.DefaultPackageType, false),
			WeightUnit:      consign.WeightUnit(cfg.DefaultWeightUnit),
			CountryOfOrigin: cfg.CountryOfOrigin,
		},
	})

	if cfg.ParcelwayUseMock {
		seedDemoOrders(m)
	}
	return m
}

// seedDemoOrders loads a handful of exportable orders so the mock-backed
// server has something to process.
func seedDemoOrders(m *store.Memory) {
	m.SeedOrder(&store.Order{
		ID:          1,
		StoreID:     defaultStoreID,
		IncrementID: "100000001",
		Status:      store.StatusProcessing,
		Address: consign.Address{
			Name:        "Piet Hein",
			StreetLines: []string{"Rokin 123"},
			PostalCode:  "1012 KP",
			City:        "Amsterdam",
			Country:     "NL",
			Email:       "piet@example.com",
		},
		Items: []consign.OrderItem{
			{Name: "Ceramic mug", Qty: 2, Weight: 250, Price: decimal.NewFromFloat(12.95), ProductID: 1001},
		},
	})
	m.SeedOrder(&store.Order{
		ID:          2,
		StoreID:     defaultStoreID,
		IncrementID: "100000002",
		Status:      store.StatusProcessing,
		Address: consign.Address{
			Name:        "Lena Peeters",
			StreetLines: []string{"Meir 24"},
			PostalCode:  "2000",
			City:        "Antwerpen",
			Country:     "BE",
			Email:       "lena@example.com",
		},
		Items: []consign.OrderItem{
			{Name: "Poster tube", Qty: 1, Weight: 400, Price: decimal.NewFromFloat(24.50), ProductID: 1002},
		},
	})
}

// logMailer is the development Mailer: it logs the notification instead of
// dispatching it through the host commerce system.
type logMailer struct {
	logger *otelzap.Logger
}

func (l *logMailer) SendTrackEmail(ctx context.Context, order *store.Order, trackingNumber string) error {
	l.logger.Ctx(ctx).Info("Track email dispatched",
		zap.String("order", order.IncrementID),
		zap.String("tracking_number", trackingNumber),
	)
	return nil
}

// labelFormatFromString maps a CLI flag value onto a label format, falling
// back to A4.
func labelFormatFromString(s string) consign.LabelFormat {
	if s == string(consign.LabelA6) {
		return consign.LabelA6
	}
	return consign.LabelA4
}
