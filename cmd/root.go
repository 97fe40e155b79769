package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sport-booking",
	Short: "Sport venue booking backend",
	Long:  `REST backend for the sport venue booking platform: accounts and sessions, campaigns, the YClients bridge and the internal query proxy.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
