package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim/game"
	"github.com/inference-sim/queue-sim/sim/shop"
)

var shopLevels int // Number of upgrade levels to price

// shopCmd prints the price curves of the resolved scenario's shop
var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Print shop prices and upgrade effects",
	Run: func(cmd *cobra.Command, args []string) {
		if shopLevels <= 0 {
			logrus.Fatalf("--levels must be > 0, got %d", shopLevels)
		}
		cfg, overrides, err := resolveScenario(scenarioSources{
			DefaultsPath: defaultsPath,
			Preset:       preset,
			ConfigPath:   configPath,
		})
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		catalog, err := game.BuildCatalog(overrides)
		if err != nil {
			logrus.Fatalf("Invalid shop configuration: %v", err)
		}
		printShop(os.Stdout, catalog, shopLevels, cfg.TransportSpeed, cfg.MaxCapacity, cfg.ProcessingTimeMs)
	},
}

// printShop writes one row per level for each upgrade, and the server prices.
func printShop(w io.Writer, c *shop.Catalog, levels int, baseSpeed float64, baseCapacity, baseProcessingMs int) {
	fmt.Fprintln(w, "=== Servers ===")
	for _, it := range c.Items() {
		if it.Kind == shop.KindServer {
			fmt.Fprintf(w, "%-20s %5d\n", it.Name, it.BasePrice)
		}
	}
	for _, it := range c.Items() {
		if it.Kind != shop.KindUpgrade {
			continue
		}
		fmt.Fprintf(w, "=== %s (growth %.2f) ===\n", it.Name, it.Growth)
		prices := c.PriceTable(it.ID, levels)
		for i, price := range prices {
			level := i + 1
			var effect string
			switch it.ID {
			case shop.UpgradeSpeed:
				effect = fmt.Sprintf("speed %.2f", shop.SpeedAt(baseSpeed, level+1))
			case shop.UpgradeCapacity:
				effect = fmt.Sprintf("capacity %d", shop.CapacityAt(baseCapacity, level+1))
			case shop.UpgradeProcessing:
				effect = fmt.Sprintf("processing %d ms", shop.ProcessingMsAt(baseProcessingMs, level+1))
			}
			fmt.Fprintf(w, "level %2d -> %2d  price %6d  %s\n", level, level+1, price, effect)
		}
	}
}

func init() {
	shopCmd.Flags().IntVar(&shopLevels, "levels", 6, "Number of upgrade levels to price")
	addScenarioFlags(shopCmd)
}
