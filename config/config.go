// Package config holds the runtime configuration: input file paths, named
// graph identifiers, host coupling, and tuning knobs. Every field has a
// default and an environment-variable override so the runtime starts with
// no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/urdf/vocabulary"
)

// Config is the complete runtime configuration. It is initialized once at
// startup and read-only afterwards.
type Config struct {
	// Input files (JSON-LD; dictionary is a JSON array of IRIs)
	DictionaryPath string `json:"dictionaryPath"`
	OntologyPath   string `json:"ontologyPath"`
	RulesPath      string `json:"rulesPath"`

	// Named graph identifiers
	OntologyGraph    string `json:"ontologyGraph"`
	RulesGraph       string `json:"rulesGraph"`
	ApplicationGraph string `json:"applicationGraph"`
	EnvironmentGraph string `json:"environmentGraph"`
	InferredGraph    string `json:"inferredGraph"`

	// Host coupling
	InstanceID   string `json:"instanceId"`
	AdminBaseURL string `json:"adminBaseUrl"`
	NATSURL      string `json:"natsUrl"`

	// HTTP façade
	ListenAddr string `json:"listenAddr"`

	// Tuning
	Debounce      time.Duration `json:"debounce"`
	ReadyAttempts int           `json:"readyAttempts"`
	ReadyInterval time.Duration `json:"readyInterval"`

	// WatchFiles reloads ontology/rules graphs when their backing files
	// change on disk.
	WatchFiles bool `json:"watchFiles"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DictionaryPath:   "data/zurl.json",
		OntologyPath:     "data/ontology.jsonld",
		RulesPath:        "data/rules.jsonld",
		OntologyGraph:    vocabulary.GraphOntology,
		RulesGraph:       vocabulary.GraphRules,
		ApplicationGraph: vocabulary.GraphApplication,
		EnvironmentGraph: vocabulary.GraphEnvironment,
		InferredGraph:    vocabulary.GraphInferred,
		InstanceID:       "default",
		AdminBaseURL:     "http://127.0.0.1:1880",
		NATSURL:          "",
		ListenAddr:       ":1881",
		Debounce:         250 * time.Millisecond,
		ReadyAttempts:    30,
		ReadyInterval:    time.Second,
		WatchFiles:       true,
	}
}

// FromEnv returns the default configuration with URDF_* environment
// overrides applied.
func FromEnv() *Config {
	c := Default()
	setString(&c.DictionaryPath, "URDF_DICTIONARY")
	setString(&c.OntologyPath, "URDF_ONTOLOGY")
	setString(&c.RulesPath, "URDF_RULES")
	setString(&c.OntologyGraph, "URDF_GRAPH_ONTOLOGY")
	setString(&c.RulesGraph, "URDF_GRAPH_RULES")
	setString(&c.ApplicationGraph, "URDF_GRAPH_APPLICATION")
	setString(&c.EnvironmentGraph, "URDF_GRAPH_ENVIRONMENT")
	setString(&c.InferredGraph, "URDF_GRAPH_INFERRED")
	setString(&c.InstanceID, "URDF_INSTANCE_ID")
	setString(&c.AdminBaseURL, "URDF_ADMIN_URL")
	setString(&c.NATSURL, "URDF_NATS_URL")
	setString(&c.ListenAddr, "URDF_LISTEN")
	setDuration(&c.Debounce, "URDF_DEBOUNCE")
	setInt(&c.ReadyAttempts, "URDF_READY_ATTEMPTS")
	setDuration(&c.ReadyInterval, "URDF_READY_INTERVAL")
	setBool(&c.WatchFiles, "URDF_WATCH_FILES")
	return c
}

// Validate checks invariants the loaders rely on.
func (c *Config) Validate() error {
	if c.InstanceID == "" {
		return fmt.Errorf("instance id cannot be empty")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	if c.ReadyAttempts <= 0 {
		return fmt.Errorf("ready attempts must be positive, got %d", c.ReadyAttempts)
	}
	graphs := map[string]string{
		"ontology":    c.OntologyGraph,
		"rules":       c.RulesGraph,
		"application": c.ApplicationGraph,
		"environment": c.EnvironmentGraph,
		"inferred":    c.InferredGraph,
	}
	seen := map[string]string{}
	for name, gid := range graphs {
		if gid == "" {
			return fmt.Errorf("%s graph id cannot be empty", name)
		}
		if other, dup := seen[gid]; dup {
			return fmt.Errorf("%s and %s graphs share id %s", name, other, gid)
		}
		seen[gid] = name
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		} else if ms, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
