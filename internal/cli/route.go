package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

var routeCmd = &cobra.Command{
	Use:   "route <origin> <destination>",
	Short: "Show the route between two solar systems",
	Long: `Show the jumps, the shortest route and the direct distance between two
solar systems. Systems missing locally are loaded first.

Examples:
  # Jita to Amarr
  eveuniverse route 30000142 30002187`,
	Args: cobra.ExactArgs(2),
	RunE: runRoute,
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	origin, err := parseID(args[0])
	if err != nil {
		return err
	}
	destination, err := parseID(args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	route, err := app.Syncer.Route(ctx, origin, destination)
	if err != nil {
		return err
	}
	if len(route) == 0 {
		fmt.Fprintln(out, "No route")
	} else {
		names, err := app.Bulk.Names(ctx, route)
		if err != nil {
			return err
		}
		hops := make([]string, len(route))
		for i, id := range route {
			if name, ok := names[id]; ok {
				hops[i] = name
			} else {
				hops[i] = fmt.Sprint(id)
			}
		}
		fmt.Fprintf(out, "Jumps: %d\n", len(route)-1)
		fmt.Fprintf(out, "Route: %s\n", strings.Join(hops, " → "))
	}

	meters, ok, err := app.Syncer.Distance(ctx, origin, destination)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "Distance: %.2f ly\n", syncer.LightYears(meters))
	} else {
		fmt.Fprintln(out, "Distance: n/a")
	}
	return nil
}
