package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "utmctl",
	Short: "UTM tracker administration",
	Example: `utmctl export > backup.json
utmctl member add alice --editor
utmctl token 1
utmctl stats`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(exportCmd(), memberCmd(), tokenCmd(), statsCmd())
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
