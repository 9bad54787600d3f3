package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/greensward-data/turf.report/internal/api"
	"github.com/greensward-data/turf.report/internal/boundary"
	"github.com/greensward-data/turf.report/internal/config"
	"github.com/greensward-data/turf.report/internal/db"
	"github.com/greensward-data/turf.report/internal/gpsmux"
	"github.com/greensward-data/turf.report/internal/monitoring"
	"github.com/greensward-data/turf.report/internal/timeutil"
	"github.com/greensward-data/turf.report/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (replay GPS fixtures instead of opening a serial port)")
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "surveys.db", "Path to the survey database")
	configPath = flag.String("config", "", "Path to a tuning config JSON file (optional)")
	gpsPort    = flag.String("gps", "", "Serial port of the NMEA GPS receiver (optional; positions can also arrive via the API)")
	fixtures   = flag.String("fixtures", "fixtures.txt", "NMEA fixture file replayed in dev mode")
	unitsFlag  = flag.String("units", "", "Default display units (sqm, sqft, acre, ha); overrides the config file")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("turf %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)
	monitoring.SetDebug(*debug)

	cfg := config.EmptyTuningConfig()
	path := *configPath
	if path == "" {
		// Pick up the checked-in defaults file when running from the repo.
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}
	if path != "" {
		loaded, err := config.LoadTuningConfig(path)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg = loaded
	}
	if *unitsFlag != "" {
		cfg = cfg.Merge(&config.TuningConfig{Units: unitsFlag})
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid units flag: %v", err)
		}
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	controller := boundary.NewController(boundary.ControllerConfig{
		MinSpacingMeters: cfg.GetMinSpacingMeters(),
		MinPolygonPoints: cfg.GetMinPolygonPoints(),
	}, timeutil.RealClock{})
	server := api.NewServer(controller, database, cfg, timeutil.RealClock{})

	var gps gpsmux.Muxer
	switch {
	case *devMode:
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to read fixtures file: %v", err)
		}
		sentences := strings.Split(strings.TrimSpace(string(data)), "\n")
		gps = gpsmux.NewMockGPSMux(sentences, time.Second)
		log.Printf("dev mode: replaying %d fixture sentences", len(sentences))
	case *gpsPort != "":
		opts := gpsmux.PortOptions{BaudRate: cfg.GetGPSBaudRate()}
		gps, err = gpsmux.NewSerialGPSMux(*gpsPort, opts)
		if err != nil {
			log.Fatalf("failed to open GPS port %s: %v", *gpsPort, err)
		}
		log.Printf("reading GPS fixes from %s", *gpsPort)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if gps != nil {
		defer gps.Close()

		// run the monitor routine to manage IO on the GPS port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gps.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor GPS port: %v", err)
			}
			log.Print("GPS monitor routine terminated")
		}()

		// subscribe to position fixes and hand them to the server, which
		// keeps the latest one for detection-triggered collection
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := gps.Subscribe()
			defer gps.Unsubscribe(id)
			for {
				select {
				case fix := <-c:
					server.RecordFix(fix)
				case <-ctx.Done():
					log.Print("GPS subscribe routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := server.ServeMux()
		database.AttachAdminRoutes(mux)

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
