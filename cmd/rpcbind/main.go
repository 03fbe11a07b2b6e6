// Command rpcbind runs the reference RPCBIND (program 100000, version 2)
// daemon: pkg/rpcbind's procedure table served over
// internal/rpcserver.Service's blocking dispatcher.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/onc-rpc/internal/config"
	"github.com/marmos91/onc-rpc/internal/logger"
	"github.com/marmos91/onc-rpc/pkg/rpcbind"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rpcbind",
	Short: "Reference RPCBIND (RFC 1833) daemon",
	Long: `rpcbind serves SET, UNSET, GETADDR, and DUMP over a single
in-memory registrations table, as a reference implementation of RFC 1833's
rpcbind version 2 program built on this module's RPC runtime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(*cobra.Command, []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("rpcbind: load config: %w", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "text", Output: "stderr"}); err != nil {
		return fmt.Errorf("rpcbind: init logger: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("rpcbind: listen on %s: %w", cfg.ListenAddr, err)
	}
	defer func() { _ = listener.Close() }()

	logger.Info("rpcbind listening", "addr", listener.Addr().String())

	registry := rpcbind.NewRegistry()
	service := rpcbind.NewService(registry)
	service.MaxMessageSize = cfg.MaxMessageSize
	return service.Serve(listener)
}
