// Command colmap resolves column names against a key set and runs ad-hoc
// queries with name-based column access.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/colmap"
	"github.com/Konsultn-Engineering/colmap/command"
	"github.com/Konsultn-Engineering/colmap/connector"
	"github.com/Konsultn-Engineering/colmap/dialect"
	"github.com/Konsultn-Engineering/colmap/mapper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "colmap",
		Short:        "Case-insensitive column resolution for SQL results",
		SilenceUsage: true,
	}
	root.AddCommand(newResolveCmd(), newQueryCmd())
	return root
}

func newResolveCmd() *cobra.Command {
	var (
		keys  []string
		force string
	)
	cmd := &cobra.Command{
		Use:   "resolve --key KEY... NAME...",
		Short: "Resolve names against a key set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []mapper.Option
			switch strings.ToLower(force) {
			case "":
			case "mask":
				opts = append(opts, mapper.WithRepresentation(mapper.KindMaskTable))
			case "hash":
				opts = append(opts, mapper.WithRepresentation(mapper.KindHashFallback))
			default:
				return fmt.Errorf("unknown representation %q", force)
			}
			return resolve(cmd.OutOrStdout(), keys, args, opts...)
		},
	}
	cmd.Flags().StringArrayVarP(&keys, "key", "k", nil, "key in the resolver (repeatable, order matters)")
	cmd.Flags().StringVar(&force, "force", "", "force a representation: mask or hash")
	return cmd
}

func resolve(w io.Writer, keys, names []string, opts ...mapper.Option) error {
	m := mapper.New(keys, opts...)
	defer m.Dispose()

	st := m.Stats()
	fmt.Fprintf(w, "kind=%s strategy=%s count=%d\n", st.Kind, st.Strategy, st.Count)
	for _, name := range names {
		key, ok := m.SameKey(name)
		if !ok {
			fmt.Fprintf(w, "%q\t-1\n", name)
			continue
		}
		fmt.Fprintf(w, "%q\t%d\t%q\n", name, m.Index(name), key)
	}
	return nil
}

func newQueryCmd() *cobra.Command {
	var (
		configPath string
		columns    []string
	)
	cmd := &cobra.Command{
		Use:   "query --config FILE SQL",
		Short: "Run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connector.LoadConfig(configPath)
			if err != nil {
				return err
			}
			db, err := colmap.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			rs, err := db.Query(cmd.Context(), command.Positional(args[0]))
			if err != nil {
				return err
			}
			defer rs.Close()
			return printRecords(cmd.OutOrStdout(), db.Dialect(), rs, columns)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "colmap.yaml", "path to the YAML config")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to print, matched case-insensitively")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")
	return cmd
}

// printRecords writes rs as tab-separated SQL literals. With no columns
// selected every column is printed.
func printRecords(w io.Writer, d dialect.Dialect, rs *command.RecordSet, columns []string) error {
	if len(columns) == 0 {
		columns = rs.Columns()
	}
	header := make([]string, len(columns))
	for i, c := range columns {
		name, ok := rs.Column(c)
		if !ok {
			return fmt.Errorf("%w: %s", command.ErrUnknownColumn, c)
		}
		header[i] = name
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	cells := make([]string, len(columns))
	for _, r := range rs.All() {
		for i, c := range columns {
			v, err := r.Get(c)
			if err != nil {
				return err
			}
			cells[i] = dialect.RenderValue(d, v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return nil
}
