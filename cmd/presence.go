// cmd/presence.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markb/sbrt/internal/log"
	"github.com/markb/sbrt/realtime"
)

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Track presence on a channel and tail presence events",
	Long:  `Joins a channel with presence enabled, announces the given user, and prints presence events until interrupted. The user is untracked on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		channel, _ := cmd.Flags().GetString("channel")
		user, _ := cmd.Flags().GetString("user")
		metaJSON, _ := cmd.Flags().GetString("meta")
		schema, _ := cmd.Flags().GetString("schema")
		table, _ := cmd.Flags().GetString("table")

		if channel == "" {
			channel = realtime.BuildTopic(schema, table)
		}
		if user == "" {
			return fmt.Errorf("--user is required")
		}

		var meta map[string]any
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return fmt.Errorf("invalid --meta JSON: %w", err)
			}
		}

		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()

		enc := json.NewEncoder(os.Stdout)
		_, err = client.Channel("presence").
			Schema(schema).
			Table(table).
			OnPresence(func(state realtime.PresenceState) {
				if err := enc.Encode(state); err != nil {
					log.Error("failed to print presence event", "error", err.Error())
				}
			}).
			Subscribe(nil)
		if err != nil {
			return err
		}

		if err := client.TrackPresence(channel, realtime.PresenceState{UserID: user, Metadata: meta}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Tracking %s on %s. Ctrl-C to stop.\n", user, channel)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		if err := client.UntrackPresence(channel, user); err != nil {
			log.Warn("untrack failed", "error", err.Error())
		}
		return nil
	},
}

func init() {
	presenceCmd.Flags().String("channel", "", "channel topic (defaults to the schema/table topic)")
	presenceCmd.Flags().String("user", "", "user id to announce")
	presenceCmd.Flags().String("meta", "", "JSON metadata object attached to the presence")
	presenceCmd.Flags().String("schema", "public", "schema of the channel to join")
	presenceCmd.Flags().String("table", "", "table of the channel to join")
	rootCmd.AddCommand(presenceCmd)
}
