package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
	"github.com/KaramelBytes/gamestats-cli/internal/profile"
)

var (
	profOutputPath string
	profDelimiter  string
	profSampleRows int
	profMaxRows    int
	profGroupBy    []string
	profCorr       bool
	profOutliers   bool
	profOutlierThr float64
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Summarize the columns of a sales table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		delim, err := parseDelimiter(profDelimiter)
		if err != nil {
			return err
		}
		tbl, err := dataset.Load(path, dataset.LoadOptions{Delimiter: delim, MaxRows: profMaxRows})
		if err != nil {
			return err
		}

		opt := profile.DefaultOptions()
		opt.SampleRows = profSampleRows
		opt.GroupBy = profGroupBy
		opt.Correlations = profCorr
		opt.Outliers = profOutliers
		if profOutlierThr > 0 {
			opt.OutlierThreshold = profOutlierThr
		}
		rep, err := profile.Profile(tbl, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		if profOutputPath != "" {
			if err := os.WriteFile(profOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().StringVar(&profDelimiter, "delimiter", "", "field delimiter: ','|'tab'|';' (default: by extension)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().IntVar(&profMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	profileCmd.Flags().StringSliceVar(&profGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	profileCmd.Flags().BoolVar(&profCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&profOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
