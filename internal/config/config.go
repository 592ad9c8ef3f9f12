package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverDynamo   = "dynamodb"
	DriverMemory   = "memory"
)

// Config contains runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	Environment string

	StoreDriver       string
	DatabaseURL       string
	AWSRegion         string
	DynamoEndpoint    string
	DynamoTablePrefix string
	NodeID            uint16

	RedisAddr    string
	AMQPURL      string
	AMQPExchange string

	JWTSecret string
	JWTTTL    time.Duration

	OTLPEndpoint string
	CORSOrigins  []string
	DebugRoutes  bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8083")
	v.SetDefault("GRPC_ADDR", ":9083")
	v.SetDefault("ENVIRONMENT", "local")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_DSN", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DYNAMO_ENDPOINT", "")
	v.SetDefault("DYNAMO_TABLE_PREFIX", "")
	v.SetDefault("NODE_ID", 1)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "match.events")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DEBUG_ROUTES", false)
	return v
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	v := newViper()

	cfg := Config{
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		GRPCAddr:          v.GetString("GRPC_ADDR"),
		Environment:       v.GetString("ENVIRONMENT"),
		StoreDriver:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:       v.GetString("DB_DSN"),
		AWSRegion:         v.GetString("AWS_REGION"),
		DynamoEndpoint:    v.GetString("DYNAMO_ENDPOINT"),
		DynamoTablePrefix: v.GetString("DYNAMO_TABLE_PREFIX"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		AMQPURL:           v.GetString("AMQP_URL"),
		AMQPExchange:      v.GetString("AMQP_EXCHANGE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		OTLPEndpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		DebugRoutes:       v.GetBool("DEBUG_ROUTES"),
	}

	nodeID := v.GetInt("NODE_ID")
	if nodeID < 0 || nodeID > 0xFFFF {
		return Config{}, fmt.Errorf("NODE_ID must be between 0 and 65535")
	}
	cfg.NodeID = uint16(nodeID)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_DSN is required for the postgres store")
		}
	case DriverDynamo:
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

// comma separated; viper splits slices on whitespace only
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
