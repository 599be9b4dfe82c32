package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/config"
)

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadops",
	Short: "Find the same customer across SEFT Corp branches",
	Long: `leadops imports lead exports, keys each lead by its canonical Indonesian
phone number (or name), and lists customers that appear more than once,
within one branch or across branches. Operators pin a duplicate to an owner
branch, which freezes the copies held by every other branch.

Settings come from ./config.yaml and LEADOPS_* variables; the flags below
override both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd.Flags(), loaded)
		cfg = loaded

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "leadops: logger")
		}
		zap.L().Debug("config loaded",
			zap.String("store", cfg.Store.Driver),
			zap.String("branches", cfg.Branches.File),
		)
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

// applyFlagOverrides copies explicitly set persistent flags onto c.
func applyFlagOverrides(flags *pflag.FlagSet, c *config.Config) {
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("driver", &c.Store.Driver)
	str("db", &c.Store.DatabaseURL)
	str("branches", &c.Branches.File)
	str("log-level", &c.Log.Level)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("driver", "", "store driver: sqlite or postgres")
	pf.String("db", "", "SQLite file or Postgres connection string")
	pf.String("branches", "", "YAML branch table replacing the built-in one")
	pf.String("log-level", "", "debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
