package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dynq",
	Short: "Dynamic query expression parser",
	Long: `dynq parses C#-family query expressions into typed expression trees:
infix operators with overload resolution and numeric promotion,
query aggregates (Any, All, Where, FirstOrDefault, ...), anonymous
record construction with new(...), and is/as type operators.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			if l, err := zap.NewDevelopment(); err == nil {
				logger = l
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
