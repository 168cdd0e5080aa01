package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-atcf/internal/adapter/atcfhttp"
	"github.com/couchcryptid/storm-data-atcf/internal/besttrack"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
)

var besttrackCmd = &cobra.Command{
	Use:     "besttrack",
	Short:   "Query and import the IBTrACS best-track archive",
	Aliases: []string{"bt"},
	GroupID: "archive",
}

var findFilter besttrack.Filter

var besttrackFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find a historical storm and report its peak",
	Long: `Find a storm in BESTTRACK_DB_PATH. The recent table is searched first, then
the full archive. When several storms match, the candidates are listed instead.`,
	Example: `  stormctl besttrack find --name katrina --season 2005
  stormctl besttrack find --atcf-id AL122005
  stormctl besttrack find --name katrina --table AllBestTrack`,
	RunE: runFind,
}

var (
	importVariant string
	importFile    string
)

var besttrackImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Download or load an IBTrACS CSV into the archive",
	Example: `  stormctl besttrack import --variant last3
  stormctl besttrack import --variant all --file ibtracs.ALL.list.v04r01.csv`,
	RunE: runImport,
}

func init() {
	f := besttrackFindCmd.Flags()
	f.StringVar(&findFilter.Name, "name", "", "Storm name")
	f.IntVar(&findFilter.Season, "season", 0, "Season year")
	f.StringVar(&findFilter.Basin, "basin", "", "IBTrACS basin (NA, SA, NI, SI, SP, EP, WP)")
	f.StringVar(&findFilter.ATCFID, "atcf-id", "", "ATCF ID such as AL122005")
	f.StringVar(&findFilter.SID, "sid", "", "IBTrACS storm ID")
	f.StringVar((*string)(&findFilter.Table), "table", "", "Table to search first (LastThreeYears, AllBestTrack)")

	besttrackImportCmd.Flags().StringVar(&importVariant, "variant", string(besttrack.VariantLast3),
		"Distribution to import (last3, all)")
	besttrackImportCmd.Flags().StringVar(&importFile, "file", "",
		"Import a local CSV instead of downloading from BESTTRACK_BASE_URL")

	besttrackCmd.AddCommand(besttrackFindCmd)
	besttrackCmd.AddCommand(besttrackImportCmd)
}

func runFind(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	db, err := besttrack.Open(cfg.BestTrackDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	archive := besttrack.NewArchive(db, logger)
	res, err := archive.Find(cmd.Context(), findFilter)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch {
	case res.Ambiguous():
		if jsonOut {
			return writeJSON(out, res.Matches)
		}
		fmt.Fprintf(out, "%d storms match; narrow the search:\n", len(res.Matches))
		for _, m := range res.Matches {
			fmt.Fprintf(out, "  %s\n", m)
		}
		return nil
	case !res.Found():
		fmt.Fprintln(out, "no matching storm")
		return nil
	}

	nature, err := archive.Nature(cmd.Context(), *res.Storm)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(out, struct {
			*besttrack.Storm
			Nature string `json:"nature"`
		}{res.Storm, string(nature)})
	}

	s := res.Storm
	pressure := "unknown"
	if s.PeakPressure > 0 {
		pressure = fmt.Sprintf("%d mb", s.PeakPressure)
	}
	fmt.Fprintf(out, "%s %d (%s, %s)\n", s.Name, s.Season, s.Basin, s.BestTrackID)
	if s.ATCFID != "" {
		fmt.Fprintf(out, "  ATCF ID:  %s\n", s.ATCFID)
	}
	fmt.Fprintf(out, "  Nature:   %s\n", nature)
	fmt.Fprintf(out, "  Peak:     %d kt, %s at %s\n", s.PeakWind, pressure, s.TimeOfPeak)
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	v, err := besttrack.ParseVariant(importVariant)
	if err != nil {
		return err
	}
	db, err := besttrack.Open(cfg.BestTrackDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client := atcfhttp.NewClient(atcfhttp.Options{}, logger)
	im := besttrack.NewImporter(db, client, cfg.BestTrackBaseURL, logger, observability.NewUnregisteredMetrics())

	var n int64
	if importFile != "" {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err = im.Import(cmd.Context(), v.Table(), f)
		if err != nil {
			return err
		}
	} else if n, err = im.Download(cmd.Context(), v); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", n, v.Table())
	return nil
}
