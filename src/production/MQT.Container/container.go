package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	config "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Config"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	messaging "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Messaging"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
	"gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Startup/health"
	transport "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Transport"
)

// Container holds what every service shares: logger, health checks and cleanup
type Container struct {
	logger        *logger.Logger
	healthChecker *health.HealthChecker

	// Mutex for thread-safe access
	mu sync.RWMutex

	// Cleanup functions
	cleanupFuncs []func() error
}

// Repositories is the set of record repositories a service works with
type Repositories struct {
	Devices  interfaces.DeviceRepository
	Readings interfaces.ReadingRepository
	Commands interfaces.CommandRepository
}

// DashboardContainer manages dependencies for the dashboard service
type DashboardContainer struct {
	*Container
	config *config.DashboardConfig
	client *transport.Client
}

// StoreContainer manages dependencies for the record store service
type StoreContainer struct {
	*Container
	config *config.StoreConfig
	repos  *Repositories
}

// IngestorContainer manages dependencies for the MQTT Ingestor service
type IngestorContainer struct {
	*Container
	config *config.IngestorConfig
	client *transport.Client
}

func newContainer(logCfg *config.LoggingConfig) *Container {
	log := logger.NewLogger(logCfg)
	logger.SetGlobalLogger(log)
	metrics.Init()
	return &Container{
		logger:        log,
		healthChecker: health.NewHealthChecker(),
	}
}

// NewDashboardContainer creates a new container for the dashboard service
func NewDashboardContainer() (*DashboardContainer, error) {
	cfg, err := config.LoadDashboardConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard configuration: %w", err)
	}

	c := &DashboardContainer{
		Container: newContainer(&cfg.Logging),
		config:    cfg,
		client:    transport.NewClient(cfg.Store.BaseURL, cfg.Store.Timeout),
	}
	c.healthChecker.Register("store", health.PingFunc(c.client.Health))
	return c, nil
}

// NewStoreContainer creates a new container for the record store service
func NewStoreContainer() (*StoreContainer, error) {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load store configuration: %w", err)
	}
	return &StoreContainer{
		Container: newContainer(&cfg.Logging),
		config:    cfg,
	}, nil
}

// NewIngestorContainer creates a new container for the MQTT Ingestor service
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestor configuration: %w", err)
	}

	c := &IngestorContainer{
		Container: newContainer(&cfg.Logging),
		config:    cfg,
		client:    transport.NewClient(cfg.Store.BaseURL, cfg.Store.Timeout),
	}
	c.healthChecker.Register("store", health.PingFunc(c.client.Health))
	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetHealthChecker returns the health checker
func (c *Container) GetHealthChecker() *health.HealthChecker {
	return c.healthChecker
}

// HealthCheck runs every registered check
func (c *Container) HealthCheck(ctx context.Context) map[string]interface{} {
	return c.healthChecker.GetHealthStatus(ctx)
}

// AddCleanupFunc adds a cleanup function
func (c *Container) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown runs the cleanup functions in reverse order
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// GetConfig returns the dashboard configuration
func (c *DashboardContainer) GetConfig() *config.DashboardConfig {
	return c.config
}

// GetStoreClient returns the transport client for the remote store
func (c *DashboardContainer) GetStoreClient() *transport.Client {
	return c.client
}

// Repositories returns the remote store repositories
func (c *DashboardContainer) Repositories() *Repositories {
	return remoteRepositories(c.client)
}

// ConnectOutbox connects the MQTT publisher used for dosing, commands and alerts.
// It returns nil when MQTT is disabled.
func (c *DashboardContainer) ConnectOutbox(ctx context.Context) (*messaging.Publisher, error) {
	if !c.config.MQTT.Enabled {
		return nil, nil
	}
	pub, err := messaging.Connect(ctx, c.config.MQTT, c.logger)
	if err != nil {
		return nil, err
	}
	c.healthChecker.Register("mqtt", health.PingFunc(func(context.Context) error {
		if !pub.IsConnected() {
			return messaging.ErrNotConnected
		}
		return nil
	}))
	c.AddCleanupFunc(func() error {
		pub.Close()
		return nil
	})
	return pub, nil
}

// GetConfig returns the store configuration
func (c *StoreContainer) GetConfig() *config.StoreConfig {
	return c.config
}

// InitializeStore connects the configured backend and prepares its schema
func (c *StoreContainer) InitializeStore(ctx context.Context) (*Repositories, error) {
	c.mu.Lock()
	if c.repos != nil {
		repos := c.repos
		c.mu.Unlock()
		return repos, nil
	}
	c.mu.Unlock()

	var (
		repos *Repositories
		err   error
	)
	switch c.config.Backend {
	case config.BackendMongo:
		repos, err = c.initMongo(ctx)
	case config.BackendPostgres:
		repos, err = c.initPostgres(ctx)
	default:
		store := implementation.NewMemoryStore()
		c.healthChecker.Register("memory", store)
		repos = &Repositories{Devices: store, Readings: store, Commands: store}
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.repos = repos
	c.mu.Unlock()
	c.logger.WithField("backend", c.config.Backend).Info("Store initialized successfully")
	return repos, nil
}

func (c *StoreContainer) initMongo(ctx context.Context) (*Repositories, error) {
	client, err := health.ConnectMongoWithTimeout(c.config.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	c.AddCleanupFunc(func() error {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(dctx)
	})
	c.healthChecker.Register("mongo", health.MongoPinger{Client: client})

	db := client.Database(c.config.Mongo.Database)
	readings := implementation.NewMongoReadingRepository(db)
	if err := readings.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return &Repositories{
		Devices:  implementation.NewMongoDeviceRepository(db),
		Readings: readings,
		Commands: implementation.NewMongoCommandRepository(db),
	}, nil
}

func (c *StoreContainer) initPostgres(ctx context.Context) (*Repositories, error) {
	db, err := health.ConnectPostgresWithTimeout(c.config, 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.AddCleanupFunc(db.Close)
	c.healthChecker.Register("postgres", health.PingFunc(db.PingContext))

	if err := health.NewDatabaseManager(db).CreateTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Repositories{
		Devices:  implementation.NewPostgresDeviceRepository(db),
		Readings: implementation.NewPostgresReadingRepository(db),
		Commands: implementation.NewPostgresCommandRepository(db),
	}, nil
}

// GetConfig returns the ingestor configuration
func (c *IngestorContainer) GetConfig() *config.IngestorConfig {
	return c.config
}

// Repositories returns the remote store repositories
func (c *IngestorContainer) Repositories() *Repositories {
	return remoteRepositories(c.client)
}

func remoteRepositories(client *transport.Client) *Repositories {
	return &Repositories{
		Devices:  implementation.NewRemoteDeviceRepository(client),
		Readings: implementation.NewRemoteReadingRepository(client),
		Commands: implementation.NewRemoteCommandRepository(client),
	}
}
