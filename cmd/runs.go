package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/gamestats-cli/internal/runlog"
	"github.com/KaramelBytes/gamestats-cli/internal/utils"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := runsDir()
		if err != nil {
			return err
		}
		runs, skipped, err := runlog.List(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range skipped {
			fmt.Fprintf(out, "⚠ Skipped unreadable run file %s\n", name)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		t := tablewriter.NewWriter(out)
		t.SetHeader([]string{"ID", "Started", "Input", "Rows", "Ranked", "Status"})
		t.SetAutoWrapText(false)
		for _, m := range runs {
			status := "ok"
			if m.Error != "" {
				status = "failed"
			}
			t.Append([]string{
				m.ShortID(),
				m.CreatedAt.Format("2006-01-02 15:04"),
				m.Input,
				strconv.Itoa(m.Counts.AnalyzedRows),
				strconv.Itoa(m.Counts.CombinedTitles),
				status,
			})
		}
		t.Render()
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a recorded run manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := runsDir()
		if err != nil {
			return err
		}
		m, err := runlog.Find(dir, args[0])
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(m)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func runsDir() (string, error) {
	c, err := ensureConfig()
	if err != nil {
		return "", err
	}
	return utils.ExpandHome(c.RunsDir)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
}
