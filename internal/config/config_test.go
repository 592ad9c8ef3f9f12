package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8083", cfg.HTTPAddr)
	assert.Equal(t, ":9083", cfg.GRPCAddr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, uint16(1), cfg.NodeID)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.DebugRoutes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DynamoDB")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("DYNAMO_TABLE_PREFIX", "dev-")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("NODE_ID", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverDynamo, cfg.StoreDriver)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "dev-", cfg.DynamoTablePrefix)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, uint16(7), cfg.NodeID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.DebugRoutes)
}

func TestLoadRejectsBadNodeID(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("NODE_ID", "70000")

	_, err := Load()
	assert.ErrorContains(t, err, "NODE_ID")
}

func TestValidate(t *testing.T) {
	valid := Config{HTTPAddr: ":8083", StoreDriver: DriverMemory, JWTSecret: "s", JWTTTL: time.Hour}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreDriver = DriverPostgres }, wantErr: "DB_DSN"},
		{name: "postgres with dsn", mutate: func(c *Config) { c.StoreDriver = DriverPostgres; c.DatabaseURL = "postgres://x" }},
		{name: "dynamo without region", mutate: func(c *Config) { c.StoreDriver = DriverDynamo }, wantErr: "AWS_REGION"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "not supported"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.JWTTTL = 0 }, wantErr: "JWT_TTL"},
		{name: "missing http addr", mutate: func(c *Config) { c.HTTPAddr = "" }, wantErr: "HTTP_ADDR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
