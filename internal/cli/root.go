// Package cli implements ppmsctl, the administrative command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ppms/internal/app"
	"ppms/internal/config"
	"ppms/internal/logging"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:   "ppmsctl",
		Short: "PPMS administration",
		Long: `ppmsctl administers a PPMS store directly: migrations, user
accounts and the audit trail. It reads the same environment (.env,
DB_DRIVER, DB_DSN, ...) as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// openApp and closeApp manage the store for one command. Tests replace
// them.
var openApp = func() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}
	return app.Open(cfg, logger)
}

var closeApp = func(a *app.App) { a.Close() }

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func withApp(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)
		return fn(cmd, a, args)
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
