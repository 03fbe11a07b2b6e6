// Command showmount is a CLI client for MOUNT's EXPORT procedure: it
// connects to a running mountd, lists the exported directories and their
// permitted client groups, and renders the result as a table, JSON, or YAML.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/onc-rpc/internal/cliutil"
	"github.com/marmos91/onc-rpc/internal/rpcclient"
	"github.com/marmos91/onc-rpc/pkg/mount"
)

var (
	targetAddr   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "showmount",
	Short: "List a mountd's exported directories",
	Long: `showmount calls MOUNT's EXPORT procedure over a plain TCP
connection and prints every exported directory along with the client
groups permitted to mount it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&targetAddr, "target", "127.0.0.1:20048", "mountd address to query")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(*cobra.Command, []string) error {
	format, err := cliutil.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", targetAddr)
	if err != nil {
		return fmt.Errorf("showmount: dial %s: %w", targetAddr, err)
	}
	defer func() { _ = conn.Close() }()

	result, err := rpcclient.Call(conn, mount.Program, mount.Version, mount.ProcExport, nil)
	if err != nil {
		return fmt.Errorf("showmount: export call: %w", err)
	}

	exports, err := mount.DecodeExportListResult(result)
	if err != nil {
		return fmt.Errorf("showmount: decode export result: %w", err)
	}

	switch format {
	case cliutil.FormatJSON:
		return cliutil.PrintJSON(os.Stdout, exports)
	case cliutil.FormatYAML:
		return cliutil.PrintYAML(os.Stdout, exports)
	default:
		return printExportsTable(exports)
	}
}

func printExportsTable(exports []mount.Export) error {
	table := cliutil.NewTableData("EXPORT", "GROUPS")
	for _, e := range exports {
		groups := "(everyone)"
		if len(e.Groups) > 0 {
			groups = ""
			for i, g := range e.Groups {
				if i > 0 {
					groups += ","
				}
				groups += g
			}
		}
		table.AddRow(e.Dirpath, groups)
	}
	return cliutil.PrintTable(os.Stdout, table)
}
