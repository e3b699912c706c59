package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration for the store service
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
	MinConns int    `json:"min_conns"`
}

// MongoConfig holds MongoDB configuration for the store service
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	UseTLS         bool          `json:"use_tls"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	Enabled     bool          `json:"enabled"`
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"broker_pass"`
	UseTLS      bool          `json:"use_tls"`
	CACertPath  string        `json:"ca_cert_path"`
	Topic       string        `json:"topic"`
	TopicPrefix string        `json:"topic_prefix"`
	ClientID    string        `json:"client_id"`
	SharedGroup string        `json:"shared_group"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// StoreClientConfig describes how services reach the record store
type StoreClientConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// PollingConfig holds the refresh periods of the dashboard views
type PollingConfig struct {
	Resolution     time.Duration `json:"resolution"`
	Control        time.Duration `json:"control"`
	Monitor        time.Duration `json:"monitor"`
	Feed           time.Duration `json:"feed"`
	Alerts         time.Duration `json:"alerts"`
	AlertScanEvery int           `json:"alert_scan_every"`
	Commands       time.Duration `json:"commands"`
}

// BatchConfig holds batch processing configuration
type BatchConfig struct {
	Size   int           `json:"size"`
	Window time.Duration `json:"window"`
}

// DashboardConfig holds configuration for the dashboard service
type DashboardConfig struct {
	Server  ServerConfig      `json:"server"`
	Store   StoreClientConfig `json:"store"`
	Polling PollingConfig     `json:"polling"`
	MQTT    MQTTConfig        `json:"mqtt"`
	Logging LoggingConfig     `json:"logging"`
	CORS    CORSConfig        `json:"cors"`
}

// StoreConfig holds configuration for the self-hosted record store
type StoreConfig struct {
	Server   ServerConfig   `json:"server"`
	Backend  string         `json:"backend"` // mongo, postgres or memory
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

// IngestorConfig holds configuration for the MQTT Ingestor service
type IngestorConfig struct {
	Server  ServerConfig      `json:"server"`
	MQTT    MQTTConfig        `json:"mqtt"`
	Store   StoreClientConfig `json:"store"`
	Batch   BatchConfig       `json:"batch"`
	Logging LoggingConfig     `json:"logging"`
}

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// LoadDashboardConfig loads configuration for the dashboard service
func LoadDashboardConfig() (*DashboardConfig, error) {
	loadDotEnv()

	config := &DashboardConfig{
		Server:  loadServerConfig("DASHBOARD_PORT", "8080"),
		Store:   loadStoreClientConfig(),
		Polling: loadPollingConfig(),
		MQTT:    loadMQTTConfig("aquarium-dashboard", false),
		Logging: loadLoggingConfig(),
		CORS:    loadCORSConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadStoreConfig loads configuration for the store service
func LoadStoreConfig() (*StoreConfig, error) {
	loadDotEnv()

	config := &StoreConfig{
		Server:  loadServerConfig("STORE_PORT", "9002"),
		Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", ""),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "acuario"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: getInt("POSTGRES_MAX_CONNS", 25),
			MinConns: getInt("POSTGRES_MIN_CONNS", 5),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DB", "acuario"),
			ConnectTimeout: getDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			UseTLS:         getBool("MONGODB_TLS", false),
		},
		Logging: loadLoggingConfig(),
		CORS:    loadCORSConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadIngestorConfig loads configuration for the MQTT Ingestor service
func LoadIngestorConfig() (*IngestorConfig, error) {
	loadDotEnv()

	config := &IngestorConfig{
		Server: loadServerConfig("INGESTOR_PORT", "9003"),
		MQTT:   loadMQTTConfig("aquarium-ingestor", true),
		Store:  loadStoreClientConfig(),
		Batch: BatchConfig{
			Size:   getInt("BATCH_SIZE", 50),
			Window: getDuration("BATCH_WINDOW", 2*time.Second),
		},
		Logging: loadLoggingConfig(),
	}

	if config.Store.BaseURL == "" {
		return nil, fmt.Errorf("STORE_BASE_URL is required")
	}
	if config.MQTT.Topic == "" {
		return nil, fmt.Errorf("MQTT_TOPIC is required")
	}
	if config.Batch.Size <= 0 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive")
	}
	return config, nil
}

// Validate validates the dashboard configuration
func (c *DashboardConfig) Validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("STORE_BASE_URL is required")
	}
	p := c.Polling
	if p.Resolution <= 0 {
		return fmt.Errorf("SCHEDULER_RESOLUTION must be positive")
	}
	for name, d := range map[string]time.Duration{
		"POLL_CONTROL":  p.Control,
		"POLL_MONITOR":  p.Monitor,
		"POLL_FEED":     p.Feed,
		"POLL_ALERTS":   p.Alerts,
		"POLL_COMMANDS": p.Commands,
	} {
		if d < p.Resolution {
			return fmt.Errorf("%s must be at least SCHEDULER_RESOLUTION (%s)", name, p.Resolution)
		}
	}
	if p.AlertScanEvery < 1 {
		return fmt.Errorf("ALERT_SCAN_EVERY must be at least 1")
	}
	return nil
}

// Validate validates the store configuration
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if c.Database.User == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *StoreConfig) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// BrokerURL returns the MQTT broker URL
func (m MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if m.UseTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.BrokerHost, m.BrokerPort)
}

func loadDotEnv() {
	// .env is optional; variables may be set directly
	_ = godotenv.Load()
}

func loadServerConfig(portKey, defaultPort string) ServerConfig {
	return ServerConfig{
		Port:         getEnv(portKey, defaultPort),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
	}
}

func loadStoreClientConfig() StoreClientConfig {
	return StoreClientConfig{
		BaseURL: strings.TrimRight(getEnv("STORE_BASE_URL", "http://localhost:9002/api/v1"), "/"),
		Timeout: getDuration("STORE_TIMEOUT", 10*time.Second),
	}
}

func loadPollingConfig() PollingConfig {
	return PollingConfig{
		Resolution:     getDuration("SCHEDULER_RESOLUTION", 500*time.Millisecond),
		Control:        getDuration("POLL_CONTROL", 2*time.Second),
		Monitor:        getDuration("POLL_MONITOR", 2*time.Second),
		Feed:           getDuration("POLL_FEED", 2*time.Second),
		Alerts:         getDuration("POLL_ALERTS", 30*time.Second),
		AlertScanEvery: getInt("ALERT_SCAN_EVERY", 6),
		Commands:       getDuration("POLL_COMMANDS", 5*time.Second),
	}
}

func loadMQTTConfig(clientID string, enabled bool) MQTTConfig {
	return MQTTConfig{
		Enabled:     getBool("MQTT_ENABLED", enabled),
		BrokerHost:  getEnv("BROKER_HOST", "localhost"),
		BrokerPort:  getInt("BROKER_PORT", 1883),
		BrokerUser:  getEnv("BROKER_USER", ""),
		BrokerPass:  getEnv("BROKER_PASS", ""),
		UseTLS:      getBool("BROKER_TLS", false),
		CACertPath:  getEnv("BROKER_CA_FILE", ""),
		Topic:       getEnv("MQTT_TOPIC", "acuario/+/ph"),
		TopicPrefix: strings.TrimRight(getEnv("MQTT_TOPIC_PREFIX", "acuario"), "/"),
		ClientID:    getEnv("MQTT_CLIENT_ID", clientID),
		SharedGroup: getEnv("MQTT_SHARED_GROUP", ""),
		KeepAlive:   getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
		PingTimeout: getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:        getEnv("LOG_LEVEL", "info"),
		Format:       getEnv("LOG_FORMAT", "text"),
		Output:       getEnv("LOG_OUTPUT", "stdout"),
		EnableCaller: getBool("LOG_ENABLE_CALLER", false),
	}
}

func loadCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
		ExposedHeaders:   getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
		AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getInt("CORS_MAX_AGE", 43200), // 12 hours
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
