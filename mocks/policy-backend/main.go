// Command policy-backend is an in-memory stand-in for the policy service used
// by local runs and the e2e suite.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := os.Getenv("POLICY_BACKEND_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "policy-backend")

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(time.Now).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("starting policy backend", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
