package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/fairdeck/cmd/fairdeck/shared"
	"github.com/lox/fairdeck/internal/server"
)

// ServerCmd contains relay configuration
type ServerCmd struct {
	Addr     string `kong:"help='Listen address, overrides the config file'"`
	Config   string `kong:"default='fairdeck.hcl',help='HCL config file'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
	JSONLogs bool   `kong:"name='json-logs',help='Structured JSON logs instead of console output'"`
	MaxHands int    `kong:"help='Maximum concurrent hands, overrides the config file'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	level := cfg.Relay.LogLevel
	if c.Debug {
		level = "debug"
	}
	logger := shared.SetupLogger(level, c.JSONLogs)

	addr := cfg.Relay.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}
	maxHands := cfg.Relay.MaxHands
	if c.MaxHands > 0 {
		maxHands = c.MaxHands
	}

	manager := server.NewHandManager(logger, nil, cfg.Relay.HandExpiry(), maxHands)

	wsLevel := log.InfoLevel
	if c.Debug {
		wsLevel = log.DebugLevel
	}
	wsLogger := log.NewWithOptions(os.Stderr, log.Options{Level: wsLevel})

	s := server.NewServer(wsLogger, manager)

	logger.Info().
		Str("address", addr).
		Int("max_hands", maxHands).
		Dur("hand_expiry", cfg.Relay.HandExpiry()).
		Msg("Starting fairdeck relay")

	ctx := shared.SetupSignalHandler(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
