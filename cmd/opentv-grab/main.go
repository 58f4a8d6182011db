// Command opentv-grab runs the OpenTV EPG grabber: it loads dictionaries
// and provider configs, tracks carousel revolutions per provider, joins
// title/summary sections into EPG broadcasts, and serves Prometheus
// metrics alongside a section-ingestion endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opentvepg/grabber/internal/config"
	"github.com/opentvepg/grabber/internal/epgstore"
	"github.com/opentvepg/grabber/internal/grabber"
	"github.com/opentvepg/grabber/internal/metrics"
	"github.com/opentvepg/grabber/internal/provider"
	"github.com/opentvepg/grabber/internal/svcmgr"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file to layer onto the process environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("env file %s: %v", *envFile, err)
	}
	cfg := config.Load()

	providers, err := provider.Load(cfg.DictDir, cfg.ProvDir)
	if err != nil {
		log.Fatalf("load providers: %v", err)
	}
	log.Printf("loaded %d provider(s), %d dictionar(y/ies)", providers.Len(), providers.Dicts.Len())

	store, err := epgstore.Open(cfg.EPGDBPath, nil)
	if err != nil {
		log.Fatalf("open epg store: %v", err)
	}
	defer store.Close()

	var lookup svcmgr.Lookup
	if cfg.SvcMgrAddr != "" {
		lookup = svcmgr.NewHTTPClient(cfg.SvcMgrAddr)
	} else {
		lookup = svcmgr.NewStaticRegistry()
	}

	m := metrics.New()
	reg := grabber.NewRegistry(store, lookup, m)
	for _, p := range providers.All() {
		reg.AddModule(p, cfg.ScanPeriod, cfg.ScanMax)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/sections/", reg.IngestHandler())

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("listening on %s", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go reg.Run(ctx, func(providerID string) {
		log.Printf("grabber[%s]: revolution torn down, scheduling next pass", providerID)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
