package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-atcf/internal/adapter/atcfhttp"
	"github.com/couchcryptid/storm-data-atcf/internal/config"
	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/feed"
	"github.com/couchcryptid/storm-data-atcf/internal/filter"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/record"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

var refreshSource string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the live feed into the on-disk cache",
	Long: `Download the ATCF sector and interp files and store them in ATCF_CACHE_DIR.
The primary source falls back to the JSON mirror when it fails.`,
	Example: `  stormctl refresh
  stormctl refresh --source alternate`,
	GroupID: "live",
	RunE:    runRefresh,
}

var (
	listFilter  string
	listRegions string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List storms from the on-disk cache",
	Long: `List the storms in the cached feed. --filter takes a boolean expression over
id, atcf_id, name, basin, wind, wind_mph, wind_kmh, pressure, flag, category,
tier, invest, subtropical, moving, speed, heading and timestamp.`,
	Example: `  stormctl list
  stormctl list --filter 'wind >= 64 && !invest'
  stormctl list --regions 100100 --json`,
	GroupID: "live",
	RunE:    runList,
}

var classifyCmd = &cobra.Command{
	Use:   "classify NAME WIND FLAG BASIN",
	Short: "Classify a storm from its name, wind, flag and basin",
	Example: `  stormctl classify ERNESTO 85 HU ATL
  stormctl classify INVEST 45 SS ATL`,
	Args:    cobra.ExactArgs(4),
	GroupID: "live",
	RunE:    runClassify,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the cached table back out as feed lines",
	Long: `Load the on-disk cache and print every sector row, a blank line, then every
interp row, in the feed's own format.`,
	GroupID: "live",
	RunE:    runDump,
}

var recordCmd = &cobra.Command{
	Use:     "record",
	Short:   "Show the strongest storm recorded in RECORD_FILE",
	GroupID: "live",
	RunE:    runRecord,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSource, "source", string(feed.SourcePrimary),
		"Source to fetch from (primary, alternate)")

	listCmd.Flags().StringVar(&listFilter, "filter", "", "Filter expression")
	listCmd.Flags().StringVar(&listRegions, "regions", "",
		"Six 0/1 basin flags (ATL EPAC CPAC WPAC IO SHEM); defaults to ATCF_REGIONS")
}

func newLoader(cfg *config.Config, logger *slog.Logger) *feed.Loader {
	client := atcfhttp.NewClient(atcfhttp.Options{Timeout: cfg.FetchTimeout, InsecureSkipVerify: cfg.InsecureTLS}, logger)
	return feed.NewLoader(table.New(), feed.NewCache(cfg.CacheDir), client, feed.Sources{
		PrimaryURL:   cfg.PrimaryURL,
		InterpURL:    cfg.InterpURL,
		AlternateURL: cfg.AlternateURL,
	}, logger, observability.NewUnregisteredMetrics())
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	loader := newLoader(cfg, logger)

	switch feed.Source(refreshSource) {
	case feed.SourcePrimary:
		err = loader.FetchPrimary(cmd.Context())
	case feed.SourceAlternate:
		err = loader.FetchAlternate(cmd.Context())
	default:
		return fmt.Errorf("invalid source %q: want primary or alternate", refreshSource)
	}
	if err != nil && !errors.Is(err, feed.ErrInterpolationMismatch) {
		return err
	}

	src, _ := loader.LastLoad()
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d storms from %s into %s\n", loader.Table().Len(), src, cfg.CacheDir)
	// A mismatch still leaves the sector data usable.
	return err
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	f, err := filter.Compile(listFilter)
	if err != nil {
		return err
	}
	regions := cfg.Regions
	if listRegions != "" {
		var ok bool
		if regions, ok = domain.ParseBasinMask(listRegions); !ok {
			return fmt.Errorf("invalid regions %q: want six 0/1 flags", listRegions)
		}
	}
	f = f.WithRegions(regions)

	loader := newLoader(cfg, logger)
	if err := loader.LoadFromDisk(cmd.Context()); err != nil && !errors.Is(err, feed.ErrInterpolationMismatch) {
		return err
	}
	storms := f.Apply(domain.DescribeAll(loader.Table().AllRecords()))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), storms)
	}
	if len(storms) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no active storms")
		return nil
	}
	return printStorms(cmd.OutOrStdout(), storms)
}

func printStorms(out io.Writer, storms []domain.ActiveStorm) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBASIN\tCATEGORY\tWIND\tPRESSURE\tMOVEMENT\tOBSERVED")
	for _, s := range storms {
		pressure := "-"
		if s.PressureMB > 0 {
			pressure = strconv.Itoa(s.PressureMB) + " mb"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d kt\t%s\t%s\t%s\n",
			s.ID, s.Name, s.BasinCode, s.Class.Category, s.WindKT, pressure,
			s.Movement, s.ObservedAt.Format("2006-01-02 15:04Z"))
	}
	return w.Flush()
}

func runDump(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	loader := newLoader(cfg, logger)
	if err := loader.LoadFromDisk(cmd.Context()); err != nil && !errors.Is(err, feed.ErrInterpolationMismatch) {
		return err
	}

	out := cmd.OutOrStdout()
	tbl := loader.Table()
	for _, f := range tbl.Fixes() {
		fmt.Fprintln(out, domain.FormatFix(f))
	}
	fmt.Fprintln(out)
	for _, in := range tbl.Interps() {
		fmt.Fprintln(out, domain.FormatInterp(in))
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	wind, err := strconv.Atoi(args[1])
	if err != nil || wind < 0 {
		return fmt.Errorf("invalid wind %q: want knots as a non-negative integer", args[1])
	}
	c := domain.Classify(args[0], wind, args[2], domain.ParseBasin(args[3]))
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Category, c.Tier)
	return nil
}

func runRecord(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if cfg.RecordFile == "" {
		return errors.New("RECORD_FILE is not set")
	}
	rec, ok, err := record.NewFileStore(cfg.RecordFile).Get(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "no record yet")
		return nil
	}
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d kt, %d mb, %s, observed %s\n",
		rec.DisplayName, rec.ID, rec.WindKT, rec.PressureMB, rec.Category,
		rec.ObservedAt.Format("2006-01-02 15:04Z"))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
