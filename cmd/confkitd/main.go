// Command confkitd serves named configuration bindings over a Unix socket.
// It reads its bindings from the confkit configuration file, reads each one
// once at startup and then answers text and document queries from the
// confkit CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lc/confkit/internal/buildinfo"
	"github.com/lc/confkit/internal/config"
	"github.com/lc/confkit/internal/engine"
	"github.com/lc/confkit/internal/filesys"
	"github.com/lc/confkit/internal/log"
	"github.com/lc/confkit/pkg/api"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file (default $CONFKIT_CONFIG or ~/.confkit/config.yaml)")
	logLevel := flag.String("log-level", "", "minimum log level: debug, info, warn or error")
	flag.Parse()

	if *logLevel != "" && !log.SetLevel(*logLevel) {
		log.Fatalf("unknown log level %q", *logLevel)
	}

	// load config
	provider := config.New()
	if *configPath != "" {
		provider = config.NewWithPath(filesys.OS(), filesys.Expand(*configPath))
	}
	cfg, err := provider.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	log.Info("confkitd starting", "version", buildinfo.String(), "config", provider.Path())

	// build bindings
	eng := engine.New(filesys.OS(), cfg.Engine.CheckInterval)
	if err := eng.Load(cfg.Bindings); err != nil {
		log.Warn("some bindings were skipped", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	warmCtx, warmDone := context.WithTimeout(ctx, 30*time.Second)
	if err := eng.Warm(warmCtx); err != nil {
		log.Warn("some bindings could not be read at startup", "error", err)
	}
	warmDone()
	eng.Run(ctx)

	// start the api over unix socket
	apiSrv := api.New(eng)
	sockPath := cfg.Socket.Path

	go func() {
		if err := apiSrv.ListenAndServe(sockPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
	cancel()
	eng.Close()
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove socket", "path", sockPath, "error", err)
	}
}
