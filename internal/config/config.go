package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
)

// Global configuration structure.
type Global struct {
	// Pipeline
	MinYear         int     `mapstructure:"min_year" yaml:"min_year"`
	MinPlatformRows int     `mapstructure:"min_platform_rows" yaml:"min_platform_rows"`
	UserScoreScale  float64 `mapstructure:"user_score_scale" yaml:"user_score_scale"`
	YearFilter      string  `mapstructure:"year_filter" yaml:"year_filter"`
	MinCriticCount  int     `mapstructure:"min_critic_count" yaml:"min_critic_count"`
	TieBreak        string  `mapstructure:"tie_break" yaml:"tie_break"`

	// Output
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	RunsDir      string `mapstructure:"runs_dir" yaml:"runs_dir"`
	TopN         int    `mapstructure:"top_n" yaml:"top_n"`
	WriteXLSX    bool   `mapstructure:"write_xlsx" yaml:"write_xlsx"`
	WriteParquet bool   `mapstructure:"write_parquet" yaml:"write_parquet"`
	WritePlots   bool   `mapstructure:"write_plots" yaml:"write_plots"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"min_year", "min_platform_rows", "user_score_scale", "year_filter", "min_critic_count", "tie_break",
	"output_dir", "runs_dir", "top_n", "write_xlsx", "write_parquet", "write_plots", "log_level",
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".gamestats"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.gamestats/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the commands.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GAMESTATS")
	v.AutomaticEnv()

	def := pipeline.DefaultOptions()
	v.SetDefault("min_year", def.MinYear)
	v.SetDefault("min_platform_rows", def.MinPlatformRows)
	v.SetDefault("user_score_scale", def.UserScoreScale)
	v.SetDefault("year_filter", string(def.YearFilter))
	v.SetDefault("min_critic_count", def.MinCriticCount)
	v.SetDefault("tie_break", string(def.TieBreak))
	v.SetDefault("output_dir", "./gamestats-out")
	v.SetDefault("runs_dir", "")
	v.SetDefault("top_n", 10)
	v.SetDefault("write_xlsx", true)
	v.SetDefault("write_parquet", false)
	v.SetDefault("write_plots", true)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a named file that fails to parse is an error
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.RunsDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.RunsDir = filepath.Join(dir, "runs")
	}
	return &c, nil
}

// PipelineOptions converts the pipeline keys, rejecting invalid enum values.
func (c *Global) PipelineOptions() (pipeline.Options, error) {
	yf, err := pipeline.ParseYearFilter(c.YearFilter)
	if err != nil {
		return pipeline.Options{}, err
	}
	tb, err := pipeline.ParseTieBreak(c.TieBreak)
	if err != nil {
		return pipeline.Options{}, err
	}
	opt := pipeline.Options{
		MinYear:         c.MinYear,
		MinPlatformRows: c.MinPlatformRows,
		UserScoreScale:  c.UserScoreScale,
		YearFilter:      yf,
		MinCriticCount:  c.MinCriticCount,
		TieBreak:        tb,
	}
	if err := opt.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	return opt, nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "min_year":
		return strconv.Itoa(c.MinYear), nil
	case "min_platform_rows":
		return strconv.Itoa(c.MinPlatformRows), nil
	case "user_score_scale":
		return strconv.FormatFloat(c.UserScoreScale, 'g', -1, 64), nil
	case "year_filter":
		return c.YearFilter, nil
	case "min_critic_count":
		return strconv.Itoa(c.MinCriticCount), nil
	case "tie_break":
		return c.TieBreak, nil
	case "output_dir":
		return c.OutputDir, nil
	case "runs_dir":
		return c.RunsDir, nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "write_xlsx":
		return strconv.FormatBool(c.WriteXLSX), nil
	case "write_parquet":
		return strconv.FormatBool(c.WriteParquet), nil
	case "write_plots":
		return strconv.FormatBool(c.WritePlots), nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set validates val and assigns it to key.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	switch key {
	case "min_year":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for min_year: %v", val)
		}
		c.MinYear = i
	case "min_platform_rows", "min_critic_count", "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "min_platform_rows":
			c.MinPlatformRows = i
		case "min_critic_count":
			c.MinCriticCount = i
		default:
			c.TopN = i
		}
	case "user_score_scale":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for user_score_scale: %v", val)
		}
		c.UserScoreScale = f
	case "year_filter":
		yf, err := pipeline.ParseYearFilter(val)
		if err != nil {
			return err
		}
		c.YearFilter = string(yf)
	case "tie_break":
		tb, err := pipeline.ParseTieBreak(val)
		if err != nil {
			return err
		}
		c.TieBreak = string(tb)
	case "output_dir":
		c.OutputDir = val
	case "runs_dir":
		c.RunsDir = val
	case "write_xlsx", "write_parquet", "write_plots":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		switch key {
		case "write_xlsx":
			c.WriteXLSX = b
		case "write_parquet":
			c.WriteParquet = b
		default:
			c.WritePlots = b
		}
	case "log_level":
		lvl, err := logrus.ParseLevel(val)
		if err != nil {
			return fmt.Errorf("invalid log_level: %s", val)
		}
		c.LogLevel = lvl.String()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
