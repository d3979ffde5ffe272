package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"tabhook/internal/tableau"
)

var (
	createName  string
	createEvent string
	createURL   string

	deleteID string

	relayEvent    string
	relayResource string
	relayText     string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a Tableau webhook subscription",
	Long: "Create a Tableau webhook subscription.\n\nValid event types:\n  " +
		strings.Join(tableau.EventTypes(), "\n  "),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postJSON("/create_tableau_webhook", map[string]string{
			"name":            createName,
			"event":           createEvent,
			"destination_url": createURL,
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List Tableau webhook subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(bridgeAddr + "/list_tableau_webhooks")
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a Tableau webhook subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		return postJSON("/delete_tableau_webhook", map[string]string{
			"webhook_id": deleteID,
		})
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Send a test event notification through the Slack relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return postJSON("/webhook", map[string]string{
			"event_type":    relayEvent,
			"resource_name": relayResource,
			"text":          relayText,
		})
	},
}

func postJSON(path string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(bridgeAddr+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("bridge returned %s", resp.Status)
	}
	return nil
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Webhook name")
	createCmd.Flags().StringVar(&createEvent, "event", "", "Tableau event type")
	createCmd.Flags().StringVar(&createURL, "url", "", "Destination URL the webhook fires to")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("event")
	_ = createCmd.MarkFlagRequired("url")

	deleteCmd.Flags().StringVar(&deleteID, "id", "", "Webhook id to delete")
	_ = deleteCmd.MarkFlagRequired("id")

	relayCmd.Flags().StringVar(&relayEvent, "event", "", "Event type of the test notification")
	relayCmd.Flags().StringVar(&relayResource, "resource", "", "Resource name of the test notification")
	relayCmd.Flags().StringVar(&relayText, "text", "", "Body text of the test notification")

	rootCmd.AddCommand(createCmd, listCmd, deleteCmd, relayCmd)
}
