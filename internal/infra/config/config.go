package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	QueueNone   = "none"
	QueueMemory = "memory"
	QueueSQS    = "sqs"
	QueueRedis  = "redis"

	WriteSync  = "sync"
	WriteAsync = "async"
)

type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		BodyLimit    int           `yaml:"body_limit"`
		CORSOrigins  string        `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Database struct {
		Driver        string `yaml:"driver"`
		Host          string `yaml:"host"`
		Port          string `yaml:"port"`
		User          string `yaml:"user"`
		Password      string `yaml:"password"`
		Name          string `yaml:"dbname"`
		SSLMode       string `yaml:"sslmode"`
		MaxConns      int32  `yaml:"max_conns"`
		MongoURI      string `yaml:"mongo_uri"`
		MongoDatabase string `yaml:"mongo_database"`
	} `yaml:"database"`
	Queue struct {
		Driver     string `yaml:"driver"`
		Relay      bool   `yaml:"relay"`
		MemorySize int    `yaml:"memory_size"`
		SQS        struct {
			Region    string        `yaml:"region"`
			QueueName string        `yaml:"queue_name"`
			QueueURL  string        `yaml:"queue_url"`
			WaitTime  time.Duration `yaml:"wait_time"`
		} `yaml:"sqs"`
		Redis struct {
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			Stream   string        `yaml:"stream"`
			Group    string        `yaml:"group"`
			Consumer string        `yaml:"consumer"`
			Block    time.Duration `yaml:"block"`
			Reclaim  time.Duration `yaml:"reclaim"`
		} `yaml:"redis"`
	} `yaml:"queue"`
	Writes struct {
		Mode string `yaml:"mode"`
	} `yaml:"writes"`
	Validation struct {
		PlatformTestInfo string `yaml:"platform_test_info"`
	} `yaml:"validation"`
	Answers struct {
		VerifyVerdict bool `yaml:"verify_verdict"`
	} `yaml:"answers"`
	Subscriber struct {
		JWTSecret string `yaml:"jwt_secret"`
		Audience  string `yaml:"audience"`
	} `yaml:"subscriber"`
}

// LoadConfig reads the YAML file, then applies .env and environment overrides and defaults.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			slog.Warn("config file close failed", "error", err)
		}
	}(f)

	config := &Config{}
	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	_ = godotenv.Load()
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"PORT":                  &c.Server.Port,
		"LOG_LEVEL":             &c.Log.Level,
		"DATABASE_DRIVER":       &c.Database.Driver,
		"DATABASE_PASSWORD":     &c.Database.Password,
		"MONGO_URI":             &c.Database.MongoURI,
		"QUEUE_DRIVER":          &c.Queue.Driver,
		"SQS_QUEUE_NAME":        &c.Queue.SQS.QueueName,
		"REDIS_ADDR":            &c.Queue.Redis.Addr,
		"WRITE_MODE":            &c.Writes.Mode,
		"SUBSCRIBER_JWT_SECRET": &c.Subscriber.JWTSecret,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("QUEUE_RELAY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Queue.Relay = b
		}
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, "8080")
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Database.Driver, DriverMemory)
	setDefault(&c.Database.SSLMode, "disable")
	setDefault(&c.Database.MongoDatabase, "jee-simplified")
	setDefault(&c.Queue.Driver, QueueNone)
	setDefault(&c.Queue.Redis.Stream, "question-bank-writes")
	setDefault(&c.Writes.Mode, WriteSync)
	setDefault(&c.Validation.PlatformTestInfo, "strict")

	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = 1 << 20
	}
}

// Validate rejects unknown drivers and modes.
func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"database.driver", c.Database.Driver, []string{DriverPostgres, DriverMongo, DriverMemory}},
		{"queue.driver", c.Queue.Driver, []string{QueueNone, QueueMemory, QueueSQS, QueueRedis}},
		{"writes.mode", c.Writes.Mode, []string{WriteSync, WriteAsync}},
		{"validation.platform_test_info", c.Validation.PlatformTestInfo, []string{"strict", "lenient"}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("config: %s must be one of %v, got %q", ch.name, ch.allowed, ch.value)
		}
	}

	if c.Writes.Mode == WriteAsync && c.Queue.Driver == QueueNone {
		return fmt.Errorf("config: writes.mode %q requires a queue driver", WriteAsync)
	}
	if c.Database.Driver == DriverMongo && c.Database.MongoURI == "" {
		return fmt.Errorf("config: database.mongo_uri is required for the mongo driver")
	}
	if c.Queue.Driver == QueueSQS && c.Queue.SQS.QueueName == "" && c.Queue.SQS.QueueURL == "" {
		return fmt.Errorf("config: queue.sqs.queue_name or queue.sqs.queue_url is required")
	}
	if c.Queue.Driver == QueueRedis && c.Queue.Redis.Addr == "" {
		return fmt.Errorf("config: queue.redis.addr is required")
	}
	return nil
}

// Addr host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// PostgresDSN connection string for pgxpool.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
