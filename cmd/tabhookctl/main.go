package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var bridgeAddr string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tabhookctl",
	Short: "Manage Tableau webhook subscriptions through the bridge",
	Long: `tabhookctl drives the tableau-slack bridge's administration API.

It can create, list and delete Tableau webhook subscriptions, and send a
test event notification through the Slack relay.

Examples:
  tabhookctl list
  tabhookctl create --name refresh-alerts --event WorkbookRefreshFailed --url https://bridge.example.com/webhook
  tabhookctl delete --id <webhook-id>
  tabhookctl relay --event WorkbookRefreshFailed --resource Sales --text "extract refresh failed"`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&bridgeAddr, "addr", "http://localhost:5001", "Base URL of the bridge")
}
