package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/client"
	"github.com/examflux/examflux/internal/config"
	"github.com/examflux/examflux/internal/output"
	"github.com/examflux/examflux/internal/store"
	"github.com/examflux/examflux/internal/workflow"
)

// Shared review flags
var (
	flagBaseURL string
	flagFormat  string
	flagTimeout int
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Review backend base URL")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Request timeout in seconds (0 = no timeout)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagBaseURL != "" {
		m["baseURL"] = flagBaseURL
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagTimeout > 0 {
		m["timeoutSeconds"] = fmt.Sprintf("%d", flagTimeout)
	}
	return m
}

// session is one configured run against the backend: the controller over a
// fresh store, and the renderer for whatever the command prints.
type session struct {
	ctl *workflow.Controller
	out output.Writer
}

func newSession() (*session, config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, config.Config{}, err
	}
	w, err := output.GetWriter(cfg.Format)
	if err != nil {
		return nil, config.Config{}, err
	}
	cli := client.New(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
	st := store.New(cli)
	return &session{ctl: workflow.New(cli, st), out: w}, cfg, nil
}

// fail reports a runtime error and records the exit code. Commands return
// nil afterwards so cobra does not print usage for non-usage failures.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	exitCode = ExitRuntimeError
}
