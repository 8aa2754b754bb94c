// Command kalgo calibrates a GSM receiver against a live base station: it
// can scan a band for BTS carriers or measure a tuned dongle's clock offset
// in ppm, both by detecting FCCH bursts in the receiver's own sample stream.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kalgo",
	Short: "GSM receiver clock calibration via FCCH burst detection",
}

func main() {
	rootCmd.AddCommand(scanCmd, offsetCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
