// Package config loads and wires the process configuration.
//
// Configuration comes from three layers, later layers winning:
// built-in per-resource presets (see Defaults), an optional YAML file,
// and MINTOPS_-prefixed environment variables. Credential fields accept
// secretref: values and are resolved through a secret.Resolver at load
// time, so API keys never sit in config files.
//
// Bootstrap turns a loaded Config into running components: observer,
// breaker registry, resilience manager, LLM client, export connectors
// and the health aggregator. All wiring is explicit and happens at
// startup; nothing is constructed lazily on first use.
package config
