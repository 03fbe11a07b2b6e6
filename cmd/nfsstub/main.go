// Command nfsstub runs the stub NFSv3 (program 100003, version 3) daemon:
// pkg/nfsstub's NULL + GETATTR procedure table served over
// internal/rpcserver.Service's blocking dispatcher.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/onc-rpc/internal/config"
	"github.com/marmos91/onc-rpc/internal/logger"
	"github.com/marmos91/onc-rpc/pkg/nfsstub"
	"github.com/marmos91/onc-rpc/pkg/rpcbind"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nfsstub",
	Short: "Stub NFSv3 daemon",
	Long: `nfsstub answers NULL and GETATTR for the single synthetic
filehandle pkg/mount hands out, exercising the MOUNT-to-NFS filehandle
handoff without any real filesystem behind it.`,
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
		return fmt.Errorf("nfsstub: load config: %w", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "text", Output: "stderr"}); err != nil {
		return fmt.Errorf("nfsstub: init logger: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("nfsstub: listen on %s: %w", cfg.ListenAddr, err)
	}
	defer func() { _ = listener.Close() }()

	if cfg.RpcbindAddr != "" {
		localAddr, err := rpcbind.UniversalAddressFromListener(listener.Addr())
		if err != nil {
			logger.Warn("nfsstub: could not derive universal address", "error", err)
		} else if err := rpcbind.Register(cfg.RpcbindAddr, nfsstub.Program, nfsstub.Version, "tcp", localAddr, "nfsstub"); err != nil {
			logger.Warn("nfsstub: rpcbind registration failed", "error", err)
		} else {
			logger.Info("nfsstub: registered with rpcbind", "rpcbind_addr", cfg.RpcbindAddr)
		}
	}

	logger.Info("nfsstub listening", "addr", listener.Addr().String())

	service := nfsstub.NewService()
	service.MaxMessageSize = cfg.MaxMessageSize
	return service.Serve(listener)
}
