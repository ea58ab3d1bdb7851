// Package status exposes a local debug endpoint for a running realtime
// client: subscription and connection state as JSON, plus Prometheus
// metrics.
package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markb/sbrt/internal/log"
	"github.com/markb/sbrt/realtime"
)

// Client is the subset of the realtime client the status server reads.
type Client interface {
	Stats() realtime.ClientStats
	Subscriptions() []realtime.SubscriptionInfo
}

type statusResponse struct {
	realtime.ClientStats
	SubscriptionList []realtime.SubscriptionInfo `json:"subscription_list"`
}

// Handler builds the status router.
func Handler(client Client) http.Handler {
	r := chi.NewRouter()

	// CORS so browser dashboards can poll the endpoint
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := statusResponse{
			ClientStats:      client.Stats(),
			SubscriptionList: client.Subscriptions(),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("status: encode failed", "error", err.Error())
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe runs the status server until the listener fails.
func ListenAndServe(addr string, client Client) error {
	log.Info("status: listening", "addr", addr)
	return http.ListenAndServe(addr, Handler(client))
}
