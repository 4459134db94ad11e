package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/gamestats-cli/internal/config"
	"github.com/KaramelBytes/gamestats-cli/internal/runlog"
)

var sampleCSV = strings.Join([]string{
	"Name,Platform,Year_of_Release,Genre,Publisher,NA_Sales,EU_Sales,JP_Sales,Other_Sales,Global_Sales,Critic_Score,Critic_Count,User_Score,User_Count,Developer,Rating",
	"Alpha,PS2,2001,Action,Pub,3,1,0.5,0.5,5.0,80,10,8.0,100,Dev,T",
	"Beta,PS2,2001,Action,Pub,2,1,0,0,3.0,,5,7.0,50,Dev,T",
	"Gamma,PS2,2001,Action,Pub,1,0,0,0,1.0,60,4,tbd,,Dev,T",
	"Alpha,XB,2001,Action,Pub,1,1,0,0,2.0,90,20,9.0,200,Dev,T",
	"Delta,XB,2001,Sports,Pub,2,2,0,0,4.0,70,1,6.5,30,Dev,E",
	"Old,PS2,1999,Sports,Pub,5,5,0,0,10,95,50,9.5,500,Dev,E",
}, "\n")

func resetFlags(c *cobra.Command, names ...string) {
	for _, n := range names {
		if fl := c.Flags().Lookup(n); fl != nil {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	// Reset sticky flags and cached config that persist across invocations
	cfg = nil
	resetFlags(runCmd, "min-year", "min-platform-rows", "year-filter", "tie-break", "output", "top",
		"no-xlsx", "parquet", "no-plots", "delimiter", "max-rows", "quiet")
	resetFlags(profileCmd, "output", "delimiter", "sample-rows", "max-rows", "correlations", "outliers", "outlier-threshold")
	resetFlags(rootCmd, "config", "debug", "log-level")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// runCmdT is a helper to execute the root command and fail on error.
func runCmdT(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setupHome(t *testing.T) (home, csvPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	csvPath = filepath.Join(home, "games.csv")
	if err := os.WriteFile(csvPath, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return home, csvPath
}

func TestCLI_RunWritesArtifactsAndRecordsRun(t *testing.T) {
	home, csvPath := setupHome(t)
	out := filepath.Join(home, "out")

	stdout := runCmdT(t, "run", csvPath, "--min-platform-rows", "2", "--output", out, "--parquet", "--no-plots", "--log-level", "error")
	if !strings.Contains(stdout, "Alpha") || !strings.Contains(stdout, "rating ~ total_sales") {
		t.Fatalf("summary missing rankings or models:\n%s", stdout)
	}
	for _, name := range []string{"run.json", "report.md", "sales.csv", "combined.csv", "gamestats.xlsx", "combined.parquet", "residuals.parquet"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "platform_rows.png")); !os.IsNotExist(err) {
		t.Fatalf("--no-plots should skip charts")
	}

	m, err := runlog.Load(out)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Counts.CombinedTitles != 3 || m.Counts.AnalyzedRows != 5 || m.Options.MinPlatformRows != 2 {
		t.Fatalf("manifest = %+v", m)
	}
	runs, _, err := runlog.List(filepath.Join(home, ".gamestats", "runs"))
	if err != nil || len(runs) != 1 || runs[0].ID != m.ID {
		t.Fatalf("recorded runs = %v, %v", runs, err)
	}

	listed := runCmdT(t, "runs")
	if !strings.Contains(listed, m.ShortID()) || !strings.Contains(listed, "ok") {
		t.Fatalf("runs output:\n%s", listed)
	}
	shown := runCmdT(t, "runs", "show", m.ShortID())
	if !strings.Contains(shown, `"combined_titles": 3`) {
		t.Fatalf("runs show output:\n%s", shown)
	}
}

func TestCLI_RunWithDefaultThresholdFails(t *testing.T) {
	home, csvPath := setupHome(t)
	_, err := execute("run", csvPath, "--output", filepath.Join(home, "out"), "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "no rows left") {
		t.Fatalf("expected no rows error, got %v", err)
	}
	runs, _, _ := runlog.List(filepath.Join(home, ".gamestats", "runs"))
	if len(runs) != 1 || runs[0].Error == "" {
		t.Fatalf("failed run should be recorded with its error: %+v", runs)
	}
}

func TestCLI_RunRejectsInvalidEnum(t *testing.T) {
	_, csvPath := setupHome(t)
	if _, err := execute("run", csvPath, "--tie-break", "random"); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestCLI_ConfigSetThenRunUsesIt(t *testing.T) {
	home, csvPath := setupHome(t)
	runCmdT(t, "config", "set", "min_platform_rows", "2")
	runCmdT(t, "config", "set", "tie_break", "title")
	runCmdT(t, "config", "set", "output_dir", filepath.Join(home, "cfg-out"))

	c, err := cfgpkg.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if c.MinPlatformRows != 2 || c.TieBreak != "title" {
		t.Fatalf("saved config = %+v", c)
	}
	shown := runCmdT(t, "config", "show")
	if !strings.Contains(shown, "tie_break: title") {
		t.Fatalf("config show:\n%s", shown)
	}
	if _, err := execute("config", "set", "year_filter", "sometimes"); err == nil {
		t.Fatalf("expected invalid year_filter error")
	}

	runCmdT(t, "run", csvPath, "--no-plots", "--no-xlsx", "--quiet", "--log-level", "error")
	if _, err := os.Stat(filepath.Join(home, "cfg-out", "run.json")); err != nil {
		t.Fatalf("run should write to configured output_dir: %v", err)
	}
}

func TestCLI_Profile(t *testing.T) {
	home, csvPath := setupHome(t)
	stdout := runCmdT(t, "profile", csvPath)
	if !strings.Contains(stdout, "[DATASET SUMMARY]") || !strings.Contains(stdout, "[VALUE COUNTS]") {
		t.Fatalf("profile output:\n%s", stdout)
	}
	outPath := filepath.Join(home, "profile.md")
	runCmdT(t, "profile", csvPath, "--output", outPath, "--sample-rows", "2")
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	if !strings.Contains(string(b), "File: games.csv") {
		t.Fatalf("profile file:\n%s", b)
	}
}
