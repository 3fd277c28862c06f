package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/taskmint/mintops/secret"
)

// EnvPrefix namespaces environment overrides, e.g. MINTOPS_LLM_API_KEY
// overrides llm.api_key.
const EnvPrefix = "MINTOPS"

// Load reads configuration from an optional YAML file and the
// environment, then resolves credential fields through the resolver.
// A nil resolver still applies strict environment expansion, so plain
// ${VAR} references work without any providers.
func Load(ctx context.Context, path string, resolver *secret.Resolver) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := resolveCredentials(ctx, resolver, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key we care about. Registered keys are
// visible to AutomaticEnv, so MINTOPS_ overrides apply even without a
// config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "taskmint")
	v.SetDefault("version", "")

	v.SetDefault("observe.tracing.enabled", false)
	v.SetDefault("observe.tracing.exporter", "none")
	v.SetDefault("observe.tracing.endpoint", "")
	v.SetDefault("observe.tracing.sample_pct", 1.0)
	v.SetDefault("observe.metrics.enabled", false)
	v.SetDefault("observe.metrics.exporter", "none")
	v.SetDefault("observe.metrics.endpoint", "")
	v.SetDefault("observe.logging.enabled", true)
	v.SetDefault("observe.logging.level", "info")

	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.max_ttl", "1h")
	v.SetDefault("cache.max_size", 512)
	v.SetDefault("cache.allow_sampled", false)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.resource", "openai")
}

// resolveCredentials runs every credential field through the resolver.
// Empty fields are left alone.
func resolveCredentials(ctx context.Context, r *secret.Resolver, cfg *Config) error {
	resolve := func(key string, field *string) error {
		if *field == "" {
			return nil
		}
		out, err := r.ResolveValue(ctx, *field)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", key, err)
		}
		*field = out
		return nil
	}

	if err := resolve("llm.api_key", &cfg.LLM.APIKey); err != nil {
		return err
	}
	if n := cfg.Export.Notion; n != nil {
		if err := resolve("export.notion.token", &n.Token); err != nil {
			return err
		}
	}
	if t := cfg.Export.Trello; t != nil {
		if err := resolve("export.trello.key", &t.Key); err != nil {
			return err
		}
		if err := resolve("export.trello.token", &t.Token); err != nil {
			return err
		}
	}
	if g := cfg.Export.GitHub; g != nil {
		if err := resolve("export.github.token", &g.Token); err != nil {
			return err
		}
		if err := resolve("export.github.private_key", &g.PrivateKey); err != nil {
			return err
		}
	}
	if g := cfg.Export.GoogleTasks; g != nil {
		if err := resolve("export.google_tasks.token", &g.Token); err != nil {
			return err
		}
		if err := resolve("export.google_tasks.private_key", &g.PrivateKey); err != nil {
			return err
		}
	}
	return nil
}
