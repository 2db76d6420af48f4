package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var flagStatusAddr string

func init() {
	serveCmd.Flags().StringVar(&flagStatusAddr, "status-addr", ":8080", "listen address for the /status endpoint")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep a Commando connection open and report pump activity over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	dialCtx, cancelDial := context.WithTimeout(cmd.Context(), flagTimeout)
	s, err := openSession(dialCtx)
	cancelDial()
	if err != nil {
		return err
	}
	defer s.sock.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveStatus(gctx, s)
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	return g.Wait()
}

// serveStatus exposes s.client.Stats() as the CLI's equivalent of the teacher's
// admin index: read-only observability, no config surface.
func serveStatus(ctx context.Context, s *session) error {
	mux := chi.NewRouter()
	mux.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.client.Stats())
	})

	srv := &http.Server{Addr: flagStatusAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), flagTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", flagStatusAddr).Msg("status endpoint listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
