package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/config"
	"github.com/examflux/examflux/internal/genai"
	"github.com/examflux/examflux/internal/server"
	"github.com/examflux/examflux/internal/server/storage"
	"github.com/examflux/examflux/internal/similarity"
)

var (
	flagListen   string
	flagDBDriver string
	flagDBDSN    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference review backend",
	Long:  "Start the HTTP backend the examflux client talks to, backed by SQLite or Postgres. Generation is enabled when EXAMFLUX_OPENAI_API_KEY is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagListen != "" {
			overrides["listenAddr"] = flagListen
		}
		if flagDBDriver != "" {
			overrides["dbDriver"] = flagDBDriver
		}
		if flagDBDSN != "" {
			overrides["dbDSN"] = flagDBDSN
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}

		if err := runServe(cmd.Context(), cfg); err != nil {
			fail(err)
		}
		return nil
	},
}

func runServe(ctx context.Context, cfg config.Config) error {
	var driver storage.Driver
	switch cfg.Serve.DBDriver {
	case "sqlite":
		driver = storage.DriverSQLite
	case "postgres":
		driver = storage.DriverPostgres
	default:
		return fmt.Errorf("unknown db driver %q (want sqlite or postgres)", cfg.Serve.DBDriver)
	}

	st, err := storage.Open(ctx, driver, cfg.Serve.DBDSN)
	if err != nil {
		return fmt.Errorf("opening item store: %w", err)
	}
	defer st.Close()

	sim := similarity.NewService(st, similarity.NewHashedEmbedder())

	var gen genai.Generator
	if g, err := genai.NewOpenAI(cfg.Serve.OpenAIModel); err != nil {
		log.Printf("generation disabled: %v", err)
	} else {
		gen = g
	}

	srv := &http.Server{
		Addr:              cfg.Serve.ListenAddr,
		Handler:           server.New(st, sim, gen, cfg.Serve.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("examflux backend listening on %s (%s)", cfg.Serve.ListenAddr, cfg.Serve.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (e.g. :8000)")
	serveCmd.Flags().StringVar(&flagDBDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	serveCmd.Flags().StringVar(&flagDBDSN, "db-dsn", "", "Database DSN")
}
