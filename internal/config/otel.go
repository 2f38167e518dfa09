package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
)

// OTELConfig holds the standard OTEL_* settings used for capture tracing.
// Tracing stays off unless one of the endpoint variables is set.
type OTELConfig struct {
	ServiceName        string `env:"OTEL_SERVICE_NAME" envDefault:"compiler-monitor"`
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES"`
	ExporterEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracesEndpoint     string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
}

// defaultOTLPEndpoint is the OTLP/HTTP collector address used when tracing
// is enabled but no traces-specific endpoint overrides it.
const defaultOTLPEndpoint = "localhost:4318"

// ParseOTELConfig reads OTELConfig from the environment.
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	return &cfg, nil
}

// Enabled reports whether an OTLP endpoint was configured.
func (c *OTELConfig) Enabled() bool {
	return c.TracesEndpoint != "" || c.ExporterEndpoint != ""
}

// GetEndpoint returns the traces endpoint, then the generic one, then the default.
func (c *OTELConfig) GetEndpoint() string {
	for _, endpoint := range []string{c.TracesEndpoint, c.ExporterEndpoint} {
		if endpoint != "" {
			return endpoint
		}
	}
	return defaultOTLPEndpoint
}

// ParseResourceAttributes parses "key1=value1,key2=value2". Entries without
// a key or without '=' are skipped; a repeated key keeps its last value.
func (c *OTELConfig) ParseResourceAttributes() []attribute.KeyValue {
	if c.ResourceAttributes == "" {
		return nil
	}

	var attrs []attribute.KeyValue
	index := make(map[string]int)
	for _, pair := range strings.Split(c.ResourceAttributes, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}

		kv := attribute.String(key, strings.TrimSpace(value))
		if i, seen := index[key]; seen {
			attrs[i] = kv
			continue
		}
		index[key] = len(attrs)
		attrs = append(attrs, kv)
	}
	return attrs
}
