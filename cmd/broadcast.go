// cmd/broadcast.go
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send one broadcast message on a channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		channel, _ := cmd.Flags().GetString("channel")
		event, _ := cmd.Flags().GetString("event")
		payloadJSON, _ := cmd.Flags().GetString("payload")
		from, _ := cmd.Flags().GetString("from")

		if channel == "" {
			return fmt.Errorf("--channel is required")
		}
		if event == "" {
			return fmt.Errorf("--event is required")
		}

		payload := map[string]any{}
		if payloadJSON != "" {
			if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
				return fmt.Errorf("invalid --payload JSON: %w", err)
			}
		}

		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()

		if err := client.Broadcast(channel, event, payload, from); err != nil {
			return err
		}
		fmt.Printf("Broadcast %q sent on %s\n", event, channel)
		return nil
	},
}

func init() {
	broadcastCmd.Flags().String("channel", "", "channel topic, e.g. public:posts or realtime:public:posts")
	broadcastCmd.Flags().String("event", "", "broadcast event name")
	broadcastCmd.Flags().String("payload", "", "JSON payload object")
	broadcastCmd.Flags().String("from", "", "sender user id")
	rootCmd.AddCommand(broadcastCmd)
}
