// Command mountd runs the reference MOUNT (program 100005, version 3)
// daemon: pkg/mount's procedure table served over
// internal/rpcserver.Service's blocking dispatcher, exporting the static
// directory list named in configuration.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/onc-rpc/internal/config"
	"github.com/marmos91/onc-rpc/internal/logger"
	"github.com/marmos91/onc-rpc/pkg/mount"
	"github.com/marmos91/onc-rpc/pkg/rpcbind"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mountd",
	Short: "Reference MOUNT (RFC 1813 appendix I) daemon",
	Long: `mountd serves MNT, DUMP, UMNT, UMNTALL, and EXPORT over a static,
configured export list, as a reference implementation of NFSv3's MOUNT
program built on this module's RPC runtime.`,
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
		return fmt.Errorf("mountd: load config: %w", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "text", Output: "stderr"}); err != nil {
		return fmt.Errorf("mountd: init logger: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("mountd: listen on %s: %w", cfg.ListenAddr, err)
	}
	defer func() { _ = listener.Close() }()

	if cfg.RpcbindAddr != "" {
		localAddr, err := rpcbind.UniversalAddressFromListener(listener.Addr())
		if err != nil {
			logger.Warn("mountd: could not derive universal address", "error", err)
		} else if err := rpcbind.Register(cfg.RpcbindAddr, mount.Program, mount.Version, "tcp", localAddr, "mountd"); err != nil {
			logger.Warn("mountd: rpcbind registration failed", "error", err)
		} else {
			logger.Info("mountd: registered with rpcbind", "rpcbind_addr", cfg.RpcbindAddr)
		}
	}

	exports := make([]mount.Export, 0, len(cfg.Exports))
	for _, e := range cfg.Exports {
		exports = append(exports, mount.Export{Dirpath: e.Dirpath, Groups: e.Groups})
	}

	logger.Info("mountd listening", "addr", listener.Addr().String(), "exports", len(exports))

	state := mount.NewState(exports)
	service := mount.NewService(state)
	service.MaxMessageSize = cfg.MaxMessageSize
	return service.Serve(listener)
}
