package main

import (
	"fmt"
	"os"

	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	output  string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "toolgate",
		Short:         "toolgate inspects and invokes tools on configured tool servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
			if verbose {
				xlog.SetGlobalLogLevel(xlog.DEBUG)
			} else {
				xlog.SetGlobalLogLevel(xlog.WARNING)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "cfg", "", "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table|json|yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = rootCmd.MarkPersistentFlagRequired("cfg")

	rootCmd.AddCommand(statusCmd(), toolsCmd(), callCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(1)
	}
}
