package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	LogLevel    string
	LogFormat   string
	ShowVersion bool
	NoReasoner  bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("URDF_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: URDF_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("URDF_LOG_FORMAT", "json"),
		"Log format: json, text (env: URDF_LOG_FORMAT)")

	flag.BoolVar(&cfg.NoReasoner, "no-reasoner",
		getEnvBool("URDF_NO_REASONER", false),
		"Disable the N3 reasoner; run in SPARQL-only mode (env: URDF_NO_REASONER)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "uRDF semantic runtime: named-graph store, flow translation, rule inference.\n")
		fmt.Fprintf(os.Stderr, "Store configuration is environment-driven (URDF_* variables).\n\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch getEnv(key, "") {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	}
	return fallback
}
