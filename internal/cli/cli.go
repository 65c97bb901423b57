// Package cli provides the command-line interface for eveuniverse.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/pkg/version"
)

// app is set by Execute before any command runs.
var app *App

var commandStartTime time.Time

var rootCmd = &cobra.Command{
	Use:   "eveuniverse",
	Short: "Local mirror of the EVE Online universe",
	Long: `Local mirror of the EVE Online universe

Loads regions, solar systems, types and the rest of the static universe
from the public ESI API into a local SQLite database, together with the
related records they reference.

Optional sections (planets, stargates, dogmas, ...) are switched on in the
config file or with EVEUNIVERSE_LOAD_<SECTION>=true.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Logger().Debug().
			Str("command", cmd.Name()).
			Dur("duration", time.Since(commandStartTime)).
			Msg("command finished")
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(loadAllCmd)
	rootCmd.AddCommand(loadTypesCmd)
	rootCmd.AddCommand(loadUnitsCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(statsCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, a *App) error {
	app = a
	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithCommit(version.Commit),
	)
}

// confirm asks a yes/no question on the command's input. Anything but an
// explicit yes declines.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	switch strings.TrimSpace(response) {
	case "y", "Y", "yes", "Yes":
		return true
	default:
		return false
	}
}
