// cmd/listen.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markb/sbrt/internal/log"
	"github.com/markb/sbrt/internal/status"
	"github.com/markb/sbrt/realtime"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Tail database change events from a table or schema",
	Long:  `Subscribes to postgres_changes on the given schema/table and prints each event as a JSON line until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		table, _ := cmd.Flags().GetString("table")
		schema, _ := cmd.Flags().GetString("schema")
		event, _ := cmd.Flags().GetString("event")
		filter, _ := cmd.Flags().GetString("filter")
		statusAddr, _ := cmd.Flags().GetString("status-addr")

		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()

		if statusAddr != "" {
			go func() {
				if err := status.ListenAndServe(statusAddr, client); err != nil {
					log.Error("status server failed", "error", err.Error())
				}
			}()
		}

		builder := client.Channel("listen").Schema(schema)
		if table != "" {
			builder = builder.Table(table)
		}
		if event != "" {
			builder = builder.Event(realtime.Event(event))
		}
		if filter != "" {
			builder = builder.Filter(filter)
		}

		enc := json.NewEncoder(os.Stdout)
		id, err := builder.Subscribe(func(msg realtime.RealtimeMessage) {
			if err := enc.Encode(msg); err != nil {
				log.Error("failed to print event", "error", err.Error())
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Listening on %s (subscription %s). Ctrl-C to stop.\n",
			realtime.BuildTopic(schema, table), id)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	listenCmd.Flags().String("table", "", "table to subscribe to (empty for whole schema)")
	listenCmd.Flags().String("schema", "public", "schema to subscribe to")
	listenCmd.Flags().String("event", "", "change kind filter: INSERT, UPDATE, DELETE or * for all")
	listenCmd.Flags().String("filter", "", "row filter, e.g. user_id=eq.123")
	listenCmd.Flags().String("status-addr", "", "serve /status and /metrics on this address, e.g. 127.0.0.1:9090")
	rootCmd.AddCommand(listenCmd)
}
