package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/logger"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/permissions"
)

type queryFlags struct {
	search  string
	types   []string
	service string
	access  string
	sort    string
	page    int
	output  string
}

func newQueryCmd() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Load the sources once and print one page of the catalog",
		Example: `  permcatalog query --search mail --types Admin,Application --sort name-asc
  permcatalog query --service User --page 2 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !engine.ValidSortOrder(qf.sort) {
				return fmt.Errorf("unknown sort %q", qf.sort)
			}
			if qf.output != "table" && qf.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", qf.output)
			}
			f, err := qf.filter(cmd.Flags().Changed("types"))
			if err != nil {
				return err
			}

			_, settings, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			settings.Sources.Watch = false
			// stdout carries the results
			log, err := logger.NewLogger(logger.LoggerOptions{
				Level:       settings.Log.Level,
				Encoding:    settings.Log.Encoding,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			obs, err := observability.New(cmd.Context(), log, settings)
			if err != nil {
				return err
			}
			defer func() { _ = obs.Shutdown(context.Background()) }()
			ctx, span := obs.StartSpan(cmd.Context(), "cli.query")
			defer span.End()

			cat, err := loadCatalog(ctx, settings, log)
			if err != nil {
				observability.RecordSpanError(ctx, err)
				return err
			}
			e := engine.New(cat.All())
			res := e.View(e.Restore(f, engine.ParseSortOrder(qf.sort), qf.page))
			if qf.output == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printTable(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&qf.search, "search", "", "free-text search")
	cmd.Flags().StringSliceVar(&qf.types, "types", nil, "permission types to include (Admin, Delegated, Application); all when omitted")
	cmd.Flags().StringVar(&qf.service, "service", "", "service prefix, e.g. User")
	cmd.Flags().StringVar(&qf.access, "access", "", "access level substring, e.g. ReadWrite")
	cmd.Flags().StringVar(&qf.sort, "sort", "", "name-asc, name-desc or type")
	cmd.Flags().IntVar(&qf.page, "page", 1, "page number")
	cmd.Flags().StringVarP(&qf.output, "output", "o", "table", "output format: table or json")
	return cmd
}

func (qf queryFlags) filter(typesSet bool) (engine.FilterState, error) {
	if qf.page < 1 {
		return engine.FilterState{}, fmt.Errorf("page must be at least 1, got %d", qf.page)
	}
	f := engine.FilterState{
		Search:  qf.search,
		Types:   engine.AllTypeSet,
		Service: qf.service,
		Access:  qf.access,
	}
	if typesSet {
		f.Types = 0
		for _, name := range qf.types {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			t, ok := permissions.ParseType(name)
			if !ok {
				return engine.FilterState{}, fmt.Errorf("unknown permission type %q", name)
			}
			f.Types = f.Types.With(t)
		}
	}
	return f.Normalized(), nil
}

func loadCatalog(ctx context.Context, settings config.Settings, log logger.LogManager) (*permissions.Catalog, error) {
	store := permissions.NewStore(nil)
	r, err := permissions.Bootstrap(ctx, settings, log, store)
	if r != nil {
		defer func() { _ = r.Close() }()
	}
	if err != nil {
		return nil, err
	}
	cat, _, err := store.Current()
	return cat, err
}

func printJSON(w io.Writer, res engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printTable(w io.Writer, res engine.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VALUE\tTYPE\tDISPLAY NAME\tID")
	for _, rec := range res.VisiblePage {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Value, rec.Type, rec.DisplayName(), rec.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.VisiblePage) == 0 {
		fmt.Fprintln(w, "No permissions found matching your criteria.")
	}
	for _, chip := range res.ActiveFilters.Chips {
		fmt.Fprintf(w, "filter: %s\n", chip.Label)
	}
	_, err := fmt.Fprintf(w, "showing %d of %d permissions, page %d of %d\n",
		res.Summary.VisibleCount, res.Summary.TotalCount, res.Pagination.CurrentPage, res.Pagination.TotalPages)
	return err
}
