// Command icecounter is a terminal demo of an icestore store with two
// namespaces and a bindings store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/reganan/icestore/bindings"
	"github.com/reganan/icestore/config"
	"github.com/reganan/icestore/log"
	"github.com/reganan/icestore/metrics"
	"github.com/reganan/icestore/model"
	"github.com/reganan/icestore/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	delay := flag.Duration("delay", 800*time.Millisecond, "latency of the asynchronous effects")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Log.Output == "" {
		// stderr belongs to the terminal UI
		cfg.Log.Output = os.DevNull
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}

	ctx, endOfLogHandler := log.WithZapEffectHandler(context.Background(), cfg.Log.BufferSize, logger)
	defer endOfLogHandler()

	mt, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	s := store.New(definitions(*delay), model.WithScheduler(cfg.Scheduler), model.WithMetrics(mt))
	prefs := preferences(bindings.WithMetrics(mt))

	ctx, endOfProvider := s.Provider(ctx, nil)
	defer endOfProvider()

	p := tea.NewProgram(newUI(ctx, s, prefs))
	detach, err := subscribe(ctx, s, prefs, func() {
		// Observers may fire from inside Update, which must not block on Send.
		go p.Send(changedMsg{})
	})
	if err != nil {
		return err
	}
	defer detach()

	log.Effect(ctx, log.LogInfo, "icecounter started", map[string]interface{}{
		"namespaces": s.Namespaces(),
	})
	_, err = p.Run()
	return err
}
