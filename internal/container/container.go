package container

import (
	"context"
	"fmt"

	"chillerdash/adapters/memory"
	"chillerdash/adapters/postgres"
	"chillerdash/adapters/sqlite"
	"chillerdash/adapters/sqlstore"
	"chillerdash/domain/tariff"
	"chillerdash/internal"
	"chillerdash/internal/config"
	"chillerdash/internal/upload"
	"chillerdash/ports"
	"chillerdash/ui"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB       *sqlx.DB
	Registry *prometheus.Registry

	// Repositories (data access layer)
	UploadRepo  ports.UploadRepository
	MappingRepo ports.MappingRepository

	// Upload pipeline
	Storage   *upload.LocalFileStorage
	Metrics   *upload.Metrics
	Processor *upload.Processor
	Janitor   *upload.Janitor

	Catalog   *tariff.Catalog
	Dashboard *ui.Dashboard
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
	}, nil
}

// OpenDatabase connects to the configured database, applies the schema and
// initializes everything on top of it
func (c *Container) OpenDatabase(ctx context.Context) error {
	var (
		db  *sqlx.DB
		err error
	)
	switch c.Config.Database.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, c.Config.Database.URL)
	default:
		db, err = sqlite.Open(ctx, c.Config.Database.URL)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", c.Config.Database.Driver, err)
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.UploadRepo = sqlstore.NewUploadRepository(db)
	c.MappingRepo = sqlstore.NewMappingRepository(db)

	if err := c.initServices(); err != nil {
		return err
	}
	c.Logger.Info("[Container] Initialized with %s database", c.Config.Database.Driver)
	return nil
}

// InitInMemory initializes the container without a database; records are
// lost when the process exits
func (c *Container) InitInMemory() error {
	c.UploadRepo = memory.NewUploadRepository()
	c.MappingRepo = memory.NewMappingRepository()

	if err := c.initServices(); err != nil {
		return err
	}
	c.Logger.Info("[Container] Initialized with in-memory repositories")
	return nil
}

// initServices builds the upload pipeline and the dashboard on top of the repositories
func (c *Container) initServices() error {
	cfg := c.Config.Upload

	c.Storage = upload.NewLocalFileStorage(&upload.StorageConfig{
		BasePath:    cfg.Dir,
		MaxFileSize: cfg.MaxBytes,
		ChunkSize:   1024 * 1024,
	})

	c.Metrics = upload.NewMetrics(c.Registry)

	processorConfig := upload.DefaultProcessorConfig()
	processorConfig.MaxFileSize = cfg.MaxBytes
	processorConfig.PreviewRows = cfg.PreviewRows
	processorConfig.MaxConcurrent = cfg.MaxConcurrent
	c.Processor = upload.NewProcessor(c.UploadRepo, c.Storage, processorConfig, c.Metrics, c.Logger)

	c.Janitor = upload.NewJanitor(c.UploadRepo, c.MappingRepo, c.Storage, cfg.Retention, cfg.CleanupInterval, c.Logger)

	catalog, err := tariff.Default()
	if err != nil {
		return fmt.Errorf("failed to load tariff catalog: %w", err)
	}
	c.Catalog = catalog

	c.Dashboard, err = ui.NewDashboard(c.Processor, c.UploadRepo, c.MappingRepo, catalog,
		ui.DashboardConfig{MaxUploadBytes: cfg.MaxBytes}, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	return nil
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
