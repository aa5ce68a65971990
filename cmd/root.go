package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "truthmarket",
	Short: "Binary prediction market settlement engine",
	Long: `Truthmarket runs binary prediction markets on asset prices: users stake
a settlement token on one of two outcomes, exit early against a
time-decayed tax, and collect pari-mutuel winnings once an oracle price
resolves the market.

The serve command starts the HTTP API and event stream; the remaining
commands are small clients and calculators against a running instance.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
