// Command rpcinfo is a CLI client for RPCBIND's DUMP procedure: it connects
// to a running rpcbind daemon, lists every registered (program, version)
// pair, and renders the result as a table, JSON, or YAML.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/onc-rpc/internal/cliutil"
	"github.com/marmos91/onc-rpc/internal/rpcclient"
	"github.com/marmos91/onc-rpc/pkg/rpcbind"
)

var (
	targetAddr   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "rpcinfo",
	Short: "List program registrations known to an rpcbind daemon",
	Long: `rpcinfo calls rpcbind's DUMP procedure over a plain TCP connection
and prints every (program, version) -> (netid, address, owner) mapping the
daemon currently holds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&targetAddr, "target", "127.0.0.1:111", "rpcbind address to query")
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
		return fmt.Errorf("rpcinfo: dial %s: %w", targetAddr, err)
	}
	defer func() { _ = conn.Close() }()

	result, err := rpcclient.Call(conn, rpcbind.Program, rpcbind.Version, rpcbind.ProcDump, nil)
	if err != nil {
		return fmt.Errorf("rpcinfo: dump call: %w", err)
	}

	entries, err := rpcbind.DecodeDumpResult(result)
	if err != nil {
		return fmt.Errorf("rpcinfo: decode dump result: %w", err)
	}

	switch format {
	case cliutil.FormatJSON:
		return cliutil.PrintJSON(os.Stdout, entries)
	case cliutil.FormatYAML:
		return cliutil.PrintYAML(os.Stdout, entries)
	default:
		return printEntriesTable(entries)
	}
}

func printEntriesTable(entries []rpcbind.Entry) error {
	table := cliutil.NewTableData("PROGRAM", "VERSION", "NETID", "ADDRESS", "OWNER")
	for _, e := range entries {
		table.AddRow(
			fmt.Sprintf("%d", e.Prog),
			fmt.Sprintf("%d", e.Vers),
			e.Netid,
			e.Addr,
			e.Owner,
		)
	}
	return cliutil.PrintTable(os.Stdout, table)
}
