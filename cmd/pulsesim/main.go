package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/danmuck/pulsectl/internal/daq"
	"github.com/danmuck/pulsectl/internal/logging"
	"github.com/danmuck/pulsectl/internal/observability"
	"github.com/danmuck/pulsectl/internal/relay"
	"github.com/danmuck/pulsectl/internal/transmit"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "optional pulsesim config file")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("pulsesim")
	observability.RegisterMetrics()

	cfg := defaultSimConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadSimConfig(*configPath)
		if err != nil {
			logger.Error().Err(err).Msg("config load failed")
			os.Exit(1)
		}
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("pulsesim failed")
		os.Exit(1)
	}
}

func run(cfg simConfig, logger zerolog.Logger) error {
	dev := daq.NewLoopback()
	if cfg.FlipEvery > 0 {
		dev.FlipEvery(cfg.FlipEvery, cfg.FlipIndex)
	}

	ctrlCfg := transmit.DefaultConfig()
	ctrlCfg.FrameBits = cfg.FrameBits
	ctrlCfg.RepeatFactor = cfg.RepeatFactor
	ctrlCfg.SampleRateHz = cfg.SampleRateHz
	ctrlCfg.PollInterval = cfg.PollInterval

	cell := relay.New()
	ctrl, err := transmit.New(dev, cell, ctrlCfg, observability.ComponentLogger(logger, "transmitter"))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run()
	}()

	producer := transmit.NewProducer(dev, cell, cfg.Interval, cfg.Iterations,
		observability.ComponentLogger(logger, "producer"))
	producer.Run()
	wg.Wait()

	elapsed := time.Since(start)
	coalesced := cell.Publishes() - ctrl.Cycles()
	observability.SetCoalescedTimestamps(coalesced)

	// summary on stdout; diagnostics stay on stderr
	fmt.Printf("published=%d cycles=%d verification_failures=%d coalesced=%d elapsed=%s\n",
		cell.Publishes(), ctrl.Cycles(), ctrl.Failures(), coalesced, elapsed.Round(time.Millisecond))

	if cfg.FlipEvery == 0 && ctrl.Failures() > 0 {
		return fmt.Errorf("pulsesim: %d verification failures on a clean loopback", ctrl.Failures())
	}
	return nil
}
