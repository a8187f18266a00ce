package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flashclev/flashclev/internal/config"
	"github.com/flashclev/flashclev/internal/covers"
	"github.com/flashclev/flashclev/internal/details"
	"github.com/flashclev/flashclev/internal/gemini"
	"github.com/flashclev/flashclev/internal/handlers"
	"github.com/flashclev/flashclev/internal/llm"
	"github.com/flashclev/flashclev/internal/suggest"
	"github.com/flashclev/flashclev/internal/tutor"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Flashclev API server",
		Long: `Starts the Flashclev JSON API on the specified port.

The API suggests books for a self-improvement goal, resolves book details
and cover art for a named book, and hosts tutor chat sessions scoped to one
book or chapter.`,
		Example: `  # Start server on default port 8888
  flashclev serve

  # Start server on custom port
  flashclev serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			pool, err := gemini.NewPool(cmd.Context(), cfg.GeminiAPIKeys, cfg.TextModel, cfg.ImageModel)
			if err != nil {
				return err
			}
			defer func() {
				for _, c := range pool {
					if err := c.Close(); err != nil {
						slog.Warn("Failed to close gemini client", "err", err)
					}
				}
			}()

			suggesters := make([]llm.Suggester, len(pool))
			generators := make([]llm.ImageGenerator, len(pool))
			for i, c := range pool {
				suggesters[i] = c
				generators[i] = c
			}

			coverResolver := covers.NewResolver(llm.NewImagePool(generators))
			handler := handlers.New(handlers.Options{
				Orchestrator:        suggest.NewOrchestrator(suggesters),
				Covers:              coverResolver,
				Details:             details.NewResolver(pool[0], coverResolver),
				Sessions:            tutor.NewManager(pool[0]),
				SuggestionBatchSize: cfg.SuggestionBatchSize,
				SuggestionTarget:    cfg.SuggestionTarget,
			})

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/suggestions", handler.HandleSuggestions)
			mux.HandleFunc("/api/books", handler.HandleBooks)
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Flashclev API available", "addr", addr, "url", "http://localhost"+addr, "credentials", len(cfg.GeminiAPIKeys))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}
