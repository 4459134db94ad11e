package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/report"
	"github.com/KaramelBytes/gamestats-cli/internal/runlog"
	"github.com/KaramelBytes/gamestats-cli/internal/utils"
)

var (
	runMinYear         int
	runMinPlatformRows int
	runYearFilter      string
	runTieBreak        string
	runOutput          string
	runTop             int
	runNoXLSX          bool
	runParquet         bool
	runNoPlots         bool
	runDelimiter       string
	runMaxRows         int
	runQuiet           bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Filter, impute, rank and model a sales table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		base, err := ensureConfig()
		if err != nil {
			return err
		}
		// flags override a copy so the loaded config stays untouched
		c := *base
		f := cmd.Flags()
		if f.Changed("min-year") {
			c.MinYear = runMinYear
		}
		if f.Changed("min-platform-rows") {
			c.MinPlatformRows = runMinPlatformRows
		}
		if f.Changed("year-filter") {
			c.YearFilter = runYearFilter
		}
		if f.Changed("tie-break") {
			c.TieBreak = runTieBreak
		}
		if f.Changed("output") {
			c.OutputDir = runOutput
		}
		if f.Changed("top") {
			c.TopN = runTop
		}
		if runNoXLSX {
			c.WriteXLSX = false
		}
		if runParquet {
			c.WriteParquet = true
		}
		if runNoPlots {
			c.WritePlots = false
		}
		opt, err := c.PipelineOptions()
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		delim, err := parseDelimiter(runDelimiter)
		if err != nil {
			return err
		}
		log, err := newLogger(&c)
		if err != nil {
			return err
		}
		outDir, err := utils.ExpandHome(c.OutputDir)
		if err != nil {
			return err
		}
		runsDir, err := utils.ExpandHome(c.RunsDir)
		if err != nil {
			return err
		}

		m := runlog.New(path, opt, outDir)
		entry := log.WithField("run", m.ShortID())

		fail := func(err error) error {
			m.Finish(err)
			if rerr := m.Record(runsDir); rerr != nil {
				entry.WithError(rerr).Warn("could not record failed run")
			}
			return err
		}

		tbl, err := dataset.Load(path, dataset.LoadOptions{Delimiter: delim, MaxRows: runMaxRows})
		if err != nil {
			return fail(err)
		}
		entry.WithFields(logrus.Fields{"rows": tbl.Len(), "malformed": tbl.Malformed}).Info("loaded table")
		if tbl.Malformed > 0 {
			fmt.Printf("⚠ %d malformed rows in %s were padded or left empty\n", tbl.Malformed, tbl.Name)
		}

		res, err := pipeline.Run(tbl, opt, entry)
		if err != nil {
			return fail(err)
		}
		m.SetCounts(res)

		arts, err := report.Write(res, outDir, report.Options{
			Top:     c.TopN,
			XLSX:    c.WriteXLSX,
			Parquet: c.WriteParquet,
			Plots:   c.WritePlots,
		}, entry)
		for _, a := range arts {
			m.AddArtifact(a.Kind, a.Path)
		}
		if err != nil {
			return fail(err)
		}
		m.Finish(nil)
		if err := m.Save(); err != nil {
			return err
		}
		if err := m.Record(runsDir); err != nil {
			return err
		}

		if !runQuiet {
			report.PrintSummary(cmd.OutOrStdout(), res, c.TopN)
		}
		fmt.Printf("\n✓ Analyzed %d of %d rows (%d titles ranked)\n", len(res.Normalized.Games), tbl.Len(), len(res.Combined))
		fmt.Printf("✓ Wrote %d artifacts to %s\n", len(arts), outDir)
		fmt.Printf("✓ Recorded run %s\n", m.ShortID())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	def := pipeline.DefaultOptions()
	runCmd.Flags().IntVar(&runMinYear, "min-year", def.MinYear, "earliest release year kept (overrides config)")
	runCmd.Flags().IntVar(&runMinPlatformRows, "min-platform-rows", def.MinPlatformRows, "drop platforms with fewer rows after the year filter (overrides config)")
	runCmd.Flags().StringVar(&runYearFilter, "year-filter", string(def.YearFilter), "year filter mode: strict|legacy-or (overrides config)")
	runCmd.Flags().StringVar(&runTieBreak, "tie-break", string(def.TieBreak), "rank tie break: input|title (overrides config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output directory (overrides config)")
	runCmd.Flags().IntVar(&runTop, "top", 10, "rows shown per ranking table (overrides config)")
	runCmd.Flags().BoolVar(&runNoXLSX, "no-xlsx", false, "skip the xlsx workbook")
	runCmd.Flags().BoolVar(&runParquet, "parquet", false, "also write parquet files")
	runCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "skip PNG charts")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "field delimiter: ','|'tab'|';' (default: by extension)")
	runCmd.Flags().IntVar(&runMaxRows, "max-rows", 0, "read at most this many rows (0 = all)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the ranking tables")
}
