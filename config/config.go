package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
)

// DefaultCallTimeoutMsec is the default timeout for a single tool
// invocation. Health checks use their own, shorter timeout.
const DefaultCallTimeoutMsec = 30000

// Server describes one remote tool server. The set of servers is
// assembled once at process start and is immutable afterwards.
type Server struct {
	// Name is the unique key of the server.
	Name string `json:"name" yaml:"name"`
	// URL is the JSON-RPC invocation endpoint.
	URL string `json:"url" yaml:"url"`
	// HealthURL, when set, is probed with a GET before the handshake.
	HealthURL string `json:"health_url,omitempty" yaml:"health_url,omitempty"`
	// Enabled disables the server when set to the literal string "false",
	// any other value (including empty) leaves it enabled. A string is
	// used so the value can be expanded from an environment variable.
	Enabled string `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// RequiresAuth marks every tool on this server as requiring a
	// bearer token.
	RequiresAuth bool `json:"requires_auth,omitempty" yaml:"requires_auth,omitempty"`
	// AuthKind tags which identity flow supplies the token, opaque to
	// this package.
	AuthKind string `json:"auth_kind,omitempty" yaml:"auth_kind,omitempty"`
}

// IsEnabled reports whether the server should be initialized.
func (s *Server) IsEnabled() bool {
	return !strings.EqualFold(strings.TrimSpace(s.Enabled), "false")
}

// Redis configures the optional persistent token store.
type Redis struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Config is the explicit configuration passed into all constructors.
type Config struct {
	Servers []*Server `json:"servers" yaml:"servers"`
	// CallTimeoutMsec is the per-invocation timeout in milliseconds,
	// DefaultCallTimeoutMsec when zero.
	CallTimeoutMsec int64  `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
	Redis           *Redis `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// CallTimeout returns the effective tool call timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(values.NumbersCoalesce(c.CallTimeoutMsec, DefaultCallTimeoutMsec)) * time.Millisecond
}

// Server returns the configuration of the named server.
func (c *Config) Server(name string) *Server {
	for _, srv := range c.Servers {
		if srv.Name == name {
			return srv
		}
	}
	return nil
}

// Load reads the configuration from a YAML file, expanding ${VAR}
// references from the environment.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(cfg.Servers))
	for _, srv := range cfg.Servers {
		if srv.Name == "" || srv.URL == "" {
			return nil, errors.Newf("server entry must have name and url")
		}
		if seen[srv.Name] {
			return nil, errors.Newf("duplicate server name: %s", srv.Name)
		}
		seen[srv.Name] = true
	}
	return cfg, nil
}
