package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent cards configuration stored as config.toml
// in the .cards/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Auth        AuthConfig        `toml:"auth"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// DisableMCP turns off the /mcp endpoint.
	DisableMCP bool `toml:"disable_mcp,omitempty"`

	// ReadTimeout and WriteTimeout bound reading a request and writing its
	// response. RequestTimeout bounds each embedder and vector store call.
	// All are Go durations such as "30s".
	ReadTimeout    string `toml:"read_timeout,omitempty"`
	WriteTimeout   string `toml:"write_timeout,omitempty"`
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// Timeouts parses the API durations. An empty value yields zero.
func (a APIConfig) Timeouts() (read, write, request time.Duration, err error) {
	if read, err = parseDuration("api.read_timeout", a.ReadTimeout); err != nil {
		return 0, 0, 0, err
	}
	if write, err = parseDuration("api.write_timeout", a.WriteTimeout); err != nil {
		return 0, 0, 0, err
	}
	if request, err = parseDuration("api.request_timeout", a.RequestTimeout); err != nil {
		return 0, 0, 0, err
	}
	return read, write, request, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid value for %s: %s is negative", key, raw)
	}
	return d, nil
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server (cards search, cards vote). The target is a full URL.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`

	// Token is sent as a bearer token so created cards carry an owner.
	Token string `toml:"token,omitempty"`
}

// VectorStoreConfig holds vector store settings. Target is interpreted by the
// provider: a gRPC address for qdrant, a connection string for pgvector, a
// database path for sqlite and a base URL for chroma.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EventStreamConfig holds card event publishing settings.
// Brokers is a comma separated list.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// AuthConfig holds bearer token settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := parseDuration(key, v); err != nil {
				return err
			}
			*field(c) = v
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.disable_mcp": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.DisableMCP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.disable_mcp: %w", err)
			}
			c.API.DisableMCP = b
			return nil
		},
	},
	"api.read_timeout":        durationKey("api.read_timeout", func(c *Config) *string { return &c.API.ReadTimeout }),
	"api.write_timeout":       durationKey("api.write_timeout", func(c *Config) *string { return &c.API.WriteTimeout }),
	"api.request_timeout":     durationKey("api.request_timeout", func(c *Config) *string { return &c.API.RequestTimeout }),
	"client.api_target":       stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"client.token":            stringKey(func(c *Config) *string { return &c.Client.Token }),
	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":    stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),
	"embedding.provider":      stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":        stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":         stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.api_key":    stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),
	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"auth.jwt_secret":      stringKey(func(c *Config) *string { return &c.Auth.JWTSecret }),
}

// orderedKeys matches the TOML section layout.
var orderedKeys = []string{
	"api.listen",
	"api.disable_mcp",
	"api.read_timeout",
	"api.write_timeout",
	"api.request_timeout",
	"client.api_target",
	"client.token",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.collection",
	"vector_store.api_key",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"embedding.api_key",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
	"auth.jwt_secret",
}

// secretKeys are masked by `cards config list`.
var secretKeys = map[string]bool{
	"client.token":         true,
	"vector_store.api_key": true,
	"embedding.api_key":    true,
	"auth.jwt_secret":      true,
}

// IsSecretConfigKey reports whether the key holds a credential.
func IsSecretConfigKey(key string) bool {
	return secretKeys[key]
}
