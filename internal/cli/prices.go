package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pricesForce bool

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Refresh market prices",
	Long: `Refresh the average and adjusted market prices of all types stored
locally. Prices younger than market.stale_after are kept unless --force
is given.`,
	Args: cobra.NoArgs,
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().BoolVarP(&pricesForce, "force", "f", false, "Refresh even if prices are current")
}

func runPrices(cmd *cobra.Command, args []string) error {
	n, err := app.Market.Refresh(cmd.Context(), pricesForce)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if n == 0 && !pricesForce {
		fmt.Fprintln(out, "Prices are current.")
		return nil
	}
	fmt.Fprintf(out, "Updated %d prices\n", n)
	return nil
}
