// Package config provides YAML-based configuration for the exporting
// engine. Supports validation, defaults, and a per-instance sink list,
// in the same Default()/Load()/Validate()/env-override shape the rest of
// this codebase's configuration follows.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vigilantagent/exporting/internal/constants"
)

// Config is the top-level exporting engine configuration: one global
// [exporting] block plus an ordered list of sink instances (§6).
type Config struct {
	Exporting GlobalConfig      `yaml:"exporting"`
	Instances []*InstanceConfig `yaml:"instances"`
	Admin     AdminConfig       `yaml:"admin"`
}

// GlobalConfig holds engine-wide settings (§6's [exporting] section).
type GlobalConfig struct {
	Enabled        bool   `yaml:"enabled"`
	UpdateEvery    int    `yaml:"update_every_seconds"`
	Hostname       string `yaml:"hostname"`
	SendNames      bool   `yaml:"send_names_instead_of_ids"`
}

// AdminConfig holds the admin/self-telemetry HTTP server's settings.
type AdminConfig struct {
	Addr             string `yaml:"addr"`
	PrometheusScrape bool   `yaml:"prometheus_scrape_enabled"`
}

// InstanceConfig configures one sink (§3, §6).
type InstanceConfig struct {
	Name             string            `yaml:"name"`
	Type             string            `yaml:"type"`
	Enabled          *bool             `yaml:"enabled"`
	Destination      string            `yaml:"destination"`
	Prefix           string            `yaml:"prefix"`
	DataSource       string            `yaml:"data_source"`
	UpdateEverySec   int               `yaml:"update_every_seconds"`
	BufferOnFailures int               `yaml:"buffer_on_failures"`
	TimeoutMS        int               `yaml:"timeout_ms"`
	Username         string            `yaml:"username"`
	Password         string            `yaml:"password"`
	UseTLS           bool              `yaml:"use_tls"`

	// HostsPattern and ChartsPattern restrict this instance to hosts/
	// charts matching a simple pattern (§3, §4.3, §6 "send charts/hosts
	// matching"); empty matches everything.
	HostsPattern  string `yaml:"hosts_pattern"`
	ChartsPattern string `yaml:"charts_pattern"`

	// SendNamesInsteadOfIDs overrides the engine-wide default (§3, §6)
	// for this instance only; nil defers to exporting.send_names_instead_of_ids.
	SendNamesInsteadOfIDs *bool `yaml:"send_names_instead_of_ids"`
	// SendConfiguredLabels and SendAutomaticLabels enable emitting the
	// host's configured/automatic labels as tags (§4.2 host_tags).
	SendConfiguredLabels bool `yaml:"send_configured_labels"`
	SendAutomaticLabels  bool `yaml:"send_automatic_labels"`
	// SendVariables enables emitting the host's numeric variables,
	// independent of any chart walk (§4.2, §6).
	SendVariables bool `yaml:"send_variables"`

	// RemoteWriteURLPath overrides the default /receive path a Prometheus
	// remote-write instance posts to (SUPPLEMENTED FEATURES).
	RemoteWriteURLPath string `yaml:"remote_write_url_path"`

	// SDK-backed destinations (§4.7).
	Stream     string `yaml:"stream"`      // kinesis
	ProjectID  string `yaml:"project_id"`  // pubsub
	Topic      string `yaml:"topic"`       // pubsub
	MongoURI   string `yaml:"mongo_uri"`   // mongodb
	Database   string `yaml:"database"`    // mongodb
	Collection string `yaml:"collection"`  // mongodb

	ExtraHeaders map[string]string `yaml:"extra_headers"`
}

// UpdateEvery returns the configured interval, or the engine default.
func (i *InstanceConfig) UpdateEvery() time.Duration {
	if i.UpdateEverySec <= 0 {
		return constants.DefaultUpdateEvery
	}
	d := time.Duration(i.UpdateEverySec) * time.Second
	if d < constants.MinUpdateEvery {
		return constants.MinUpdateEvery
	}
	return d
}

// Timeout returns the configured per-send timeout, or the engine default.
func (i *InstanceConfig) Timeout() time.Duration {
	if i.TimeoutMS <= 0 {
		return constants.DefaultTimeout
	}
	return time.Duration(i.TimeoutMS) * time.Millisecond
}

// SendNames resolves this instance's send-names-instead-of-ids setting,
// falling back to globalDefault (exporting.send_names_instead_of_ids)
// when the instance does not override it (§3, §6).
func (i *InstanceConfig) SendNames(globalDefault bool) bool {
	if i.SendNamesInsteadOfIDs == nil {
		return globalDefault
	}
	return *i.SendNamesInsteadOfIDs
}

// BufferDepth returns the configured ring depth, or
// constants.DefaultBufferOnFailures when it is below the minimum (unset).
func (i *InstanceConfig) BufferDepth() int {
	if i.BufferOnFailures < constants.MinBufferOnFailures {
		return constants.DefaultBufferOnFailures
	}
	return i.BufferOnFailures
}

// Default returns a Config with no instances configured and the engine's
// own defaults for everything else.
func Default() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		Exporting: GlobalConfig{
			Enabled:     true,
			UpdateEvery: int(constants.DefaultUpdateEvery / time.Second),
			Hostname:    hostname,
			SendNames:   true,
		},
		Admin: AdminConfig{
			Addr:             ":9090",
			PrometheusScrape: true,
		},
	}
}

// Load reads a YAML config file and merges with defaults. If the file
// does not exist, returns defaults. Environment variables override file
// settings.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv(constants.EnvAdminAddr); addr != "" {
		c.Admin.Addr = addr
	}
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	var errs []string

	seen := make(map[string]bool, len(c.Instances))
	for _, inst := range c.Instances {
		if inst.Name == "" {
			errs = append(errs, "instance name is required")
			continue
		}
		if seen[inst.Name] {
			errs = append(errs, fmt.Sprintf("duplicate instance name %q", inst.Name))
		}
		seen[inst.Name] = true

		if inst.Type == "" {
			errs = append(errs, fmt.Sprintf("instances.%s.type is required", inst.Name))
		}
		if inst.Destination == "" {
			errs = append(errs, fmt.Sprintf("instances.%s.destination is required", inst.Name))
		}
		if inst.BufferOnFailures != 0 && inst.BufferOnFailures < constants.MinBufferOnFailures {
			errs = append(errs, fmt.Sprintf(
				"instances.%s.buffer_on_failures must be >= %d", inst.Name, constants.MinBufferOnFailures))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// IsEnabled reports whether the instance should run. Omitting "enabled"
// entirely means on: presence in the instance list is itself the opt-in.
func (i *InstanceConfig) IsEnabled() bool {
	return i.Enabled == nil || *i.Enabled
}

// EnabledInstances returns the instances that should run (§6).
func (c *Config) EnabledInstances() []*InstanceConfig {
	out := make([]*InstanceConfig, 0, len(c.Instances))
	for _, inst := range c.Instances {
		if inst.IsEnabled() {
			out = append(out, inst)
		}
	}
	return out
}
