// Package main provides the entry point for the chat relay server.
// The server owns two sockets: a TCP admission port where clients create
// or join rooms and receive membership tokens, and a UDP relay port that
// fans chat datagrams out to the other members of the sender's room.
//
// Usage:
//
//	chat-relay [flags]
//
// Flags:
//
//	--config string       YAML config file (optional)
//	--listen-tcp string   Admission TCP address (default ":9001")
//	--listen-udp string   Relay UDP address (default ":9002")
//	--debug               Enable debug logging
//
// Room state is held in memory only; rooms and members live until the
// process exits.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chatwire/go-chat-relay/lib/bridge"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Build info
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		configPath    string
		admissionAddr string
		relayAddr     string
		debug         bool
		showVersion   bool
	)

	cmd := &cobra.Command{
		Use:           "chat-relay",
		Short:         "Multi-room chat relay server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("chat-relay %s\n", Version)
				fmt.Printf("Build time: %s\n", BuildTime)
				fmt.Printf("Git commit: %s\n", GitCommit)
				return nil
			}

			cfg := bridge.DefaultConfig()
			if configPath != "" {
				loaded, err := bridge.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			// Flags override the config file.
			if cmd.Flags().Changed("listen-tcp") {
				cfg = cfg.WithAdmissionAddr(admissionAddr)
			}
			if cmd.Flags().Changed("listen-udp") {
				cfg = cfg.WithRelayAddr(relayAddr)
			}
			if cmd.Flags().Changed("debug") {
				cfg = cfg.WithDebug(debug)
			}

			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&admissionAddr, "listen-tcp", bridge.DefaultAdmissionAddr, "Admission TCP address")
	cmd.Flags().StringVar(&relayAddr, "listen-udp", bridge.DefaultRelayAddr, "Relay UDP address")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")

	return cmd
}

func run(cfg *bridge.Config) error {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	log.WithFields(logrus.Fields{
		"version":   Version,
		"buildTime": BuildTime,
		"commit":    GitCommit,
	}).Info("Starting chat relay server")

	server, err := bridge.NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to create server")
		return err
	}

	if err := server.Start(); err != nil {
		log.WithError(err).Error("Failed to bind server sockets")
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-server.Err():
		log.WithError(err).Error("Server error")
		_ = server.Close()
		return err
	}

	log.Info("Shutting down...")
	if err := server.Close(); err != nil {
		log.WithError(err).Warn("Error stopping server")
	}
	log.Info("Chat relay stopped")
	return nil
}
