package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/atlas"
	lifesource "github.com/aretw0/atlas/pkg/adapters/lifecycle"
	"github.com/aretw0/atlas/pkg/bridge"
	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/engine"
)

var (
	serveAddr    string
	serveInspect bool
	serveTokens  []string
)

// serveCmd runs the bridge: an HTTP/WebSocket endpoint a rendering surface
// connects to for the current style and event reporting.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the current style to a rendering surface",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := atlas.New(storePath,
			atlas.WithAdapter(adapter),
			atlas.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to initialize atlas", err)
		}

		tokens := make(map[string]string)
		for _, pair := range serveTokens {
			host, token, ok := strings.Cut(pair, "=")
			if !ok {
				fatal("Invalid --token value", fmt.Errorf("want host=token, got %q", pair))
			}
			tokens[host] = token
		}

		srv := bridge.NewServer(bridge.Config{
			Addr:    serveAddr,
			Tokens:  tokens,
			Inspect: serveInspect,
			Logger:  slog.Default(),
		}, eng)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := watchStore(ctx, eng); err != nil {
			slog.Warn("Store watching disabled", "error", err)
		}

		if err := srv.ListenAndServe(ctx); err != nil {
			fatal("Bridge failed", err)
		}
	},
}

// watchStore reloads the working document when its persisted copy changes
// underneath the bridge, so connected surfaces pick up external edits.
// Unsaved in-memory edits always win over an external write.
func watchStore(ctx context.Context, eng *engine.Engine) error {
	watchable, ok := eng.Store().(core.Watchable)
	if !ok {
		return nil
	}
	events, err := watchable.Watch(ctx, "*")
	if err != nil {
		return err
	}

	src := lifesource.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return err
	}

	go func() {
		for raw := range src.Events() {
			ev, ok := raw.(core.Event)
			if !ok {
				continue
			}
			if ev.ID != eng.CurrentID() || ev.Type == core.EventDelete {
				continue
			}
			if eng.Dirty() {
				slog.Warn("Ignoring external change to document with unsaved edits", "id", ev.ID)
				continue
			}
			if err := eng.Navigate(ctx, ev.ID); err != nil {
				slog.Warn("Failed to reload externally changed document", "id", ev.ID, "error", err)
			}
		}
	}()
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8000", "Listen address")
	serveCmd.Flags().BoolVar(&serveInspect, "inspect", false, "Enable inspection mode on the surface")
	serveCmd.Flags().StringArrayVar(&serveTokens, "token", nil, "Access token as host=token (repeatable)")
}
