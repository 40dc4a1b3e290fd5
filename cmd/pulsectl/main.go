package main

import (
	"flag"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danmuck/pulsectl/internal/config"
	"github.com/danmuck/pulsectl/internal/daq"
	"github.com/danmuck/pulsectl/internal/logging"
	"github.com/danmuck/pulsectl/internal/observability"
	"github.com/danmuck/pulsectl/internal/relay"
	"github.com/danmuck/pulsectl/internal/transmit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var startedAt = time.Now()

func main() {
	configPath := flag.String("config", "cmd/pulsectl/config.toml", "path to config file")
	sim := flag.Bool("sim", false, "run against the in-process loopback device")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("pulsectl")
	observability.RegisterMetrics()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	var dev daq.Device
	if *sim {
		dev = daq.NewLoopback()
	} else {
		// The physical board binding lives outside this repository behind
		// daq.Device; bring-up and CI run against the loopback.
		logger.Error().Err(daq.ErrDeviceNotBound).Msg("refusing to start; run with -sim or link a device binding")
		os.Exit(1)
	}

	if err := run(cfg, dev, logger); err != nil {
		logger.Error().Err(err).Msg("pulsectl failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, dev daq.Device, logger zerolog.Logger) error {
	ctrlCfg, err := config.ControllerConfig(cfg)
	if err != nil {
		return err
	}
	interval, iterations, err := config.ProducerSettings(cfg)
	if err != nil {
		return err
	}

	cell := relay.New()
	ctrl, err := transmit.New(dev, cell, ctrlCfg, observability.ComponentLogger(logger, "transmitter"))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	go serveHTTP(cfg, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run()
	}()

	producer := transmit.NewProducer(dev, cell, interval, iterations,
		observability.ComponentLogger(logger, "producer"))
	producer.Run()

	// producer has requested shutdown; the transmitter finishes any cycle in
	// flight and exits
	wg.Wait()

	observability.SetCoalescedTimestamps(cell.Publishes() - ctrl.Cycles())
	logger.Info().
		Uint64("published", cell.Publishes()).
		Uint64("cycles", ctrl.Cycles()).
		Uint64("verification_failures", ctrl.Failures()).
		Msg("transmitter joined")
	return nil
}

func serveHTTP(cfg config.Config, logger zerolog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Middleware: keep it lean
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.ComponentLogger(logger, "http")))
	r.Use(observability.RequestMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CorsOrigins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": cfg.Name,
			"version": "0.0.1",
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(startedAt).String(),
			"service": cfg.Name,
			"version": "0.0.1",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := r.Run(cfg.HTTP.Addr); err != nil {
		logger.Warn().Err(err).Msg("http server stopped")
	}
}
