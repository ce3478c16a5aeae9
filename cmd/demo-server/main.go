package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"gesushell/api/httpapi"
	"gesushell/gesu"
	"gesushell/leaderboard"
	"gesushell/realtime"
)

// A minimal in-memory server for local development: no config, no sync,
// text logs, everything on :8080.
func main() {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	hub := realtime.NewHub()
	board := leaderboard.NewSkipList()

	sh := gesu.New(ctx,
		gesu.WithRealtime(hub),
		gesu.WithLeaderboard(board),
	)
	defer sh.Close()

	handler := httpapi.NewMux(sh.Store, nil, hub, board, httpapi.Options{
		AllowCORSOrigin: "*",
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
