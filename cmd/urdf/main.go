// Command urdf runs the semantic runtime next to a host flow engine: it
// loads the dictionary, ontology, and rules, mirrors the host's flow
// configuration into the application graph, maintains the inferred graph,
// and serves the /urdf HTTP facade.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360/urdf/config"
	"github.com/c360/urdf/engine"
	"github.com/c360/urdf/events"
	"github.com/c360/urdf/gateway"
	"github.com/c360/urdf/hostapi"
	"github.com/c360/urdf/metric"
	"github.com/c360/urdf/natsclient"
	"github.com/c360/urdf/reason"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/store"
)

var version = "dev"

func main() {
	cli := parseFlags()
	if cli.ShowVersion {
		fmt.Printf("urdf %s\n", version)
		return
	}

	logger := setupLogger(cli.LogLevel, cli.LogFormat)

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	dict, err := engine.LoadDictionary(cfg.DictionaryPath)
	if err != nil {
		logger.Error("dictionary load failed", "path", cfg.DictionaryPath, "error", err)
		os.Exit(1)
	}
	logger.Info("dictionary loaded", "entries", dict.Len())

	st := store.New(dict, sparql.NewSubsetEvaluator(dict))

	var nc *natsclient.Client
	if cfg.NATSURL != "" {
		nc = natsclient.NewClient(cfg.NATSURL,
			natsclient.WithLogger(logger),
			natsclient.WithName("urdf-"+cfg.InstanceID))
		if err := nc.Connect(); err != nil {
			logger.Warn("nats unavailable; events stay local", "error", err)
			nc = nil
		}
	}

	publisher := events.NewPublisher(nc, logger)
	metrics := metric.New()
	host := hostapi.NewClient(cfg.AdminBaseURL, logger)

	var reasoner reason.Reasoner
	if !cli.NoReasoner {
		reasoner = &reason.ForwardChainer{}
	}

	runtime := engine.New(engine.Options{
		Config:   cfg,
		Store:    st,
		Host:     host,
		Events:   publisher,
		Metrics:  metrics,
		Logger:   logger,
		Reasoner: reasoner,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bus events.Subscriber
	if nc != nil {
		bus = nc
	}
	if err := runtime.Start(ctx, bus); err != nil {
		logger.Error("runtime start failed", "error", err)
		os.Exit(1)
	}

	gw := gateway.New(runtime, publisher, metrics, logger)
	mux := http.NewServeMux()
	gw.RegisterHandlers(mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("urdf facade listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	// First application load happens on the first flow event; without a
	// bus the runtime pulls once at startup.
	if bus == nil {
		runtime.Trigger("startup")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	runtime.Stop()
	if nc != nil {
		nc.Close()
	}
}
