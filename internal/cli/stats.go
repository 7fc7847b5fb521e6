package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"souschef/internal/domain"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Summarize the embedding cache: document and category counts, embedding
dimension, and when the embeddings were computed. Reads only the cache;
never calls the gateway.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := newApp(nil)
	if err != nil {
		return err
	}

	if !app.manager.LoadCached() {
		fmt.Printf("No embedding cache at %s. Run 'souschef index' first.\n",
			app.cfg.CachePath(rootDir))
		return nil
	}

	stats := app.manager.Stats()

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("State:      %s\n", stats.State)
	fmt.Printf("Documents:  %d\n", stats.Documents)
	fmt.Printf("Dimension:  %d\n", stats.Dimension)
	if !stats.ComputedAt.IsZero() {
		fmt.Printf("Computed:   %s\n", stats.ComputedAt.Local().Format("2006-01-02 15:04:05"))
	}

	if len(stats.Categories) > 0 {
		fmt.Println("\nCategories:")
		names := make([]string, 0, len(stats.Categories))
		for cat := range stats.Categories {
			names = append(names, string(cat))
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-16s %d\n", name, stats.Categories[domain.Category(name)])
		}
	}

	return nil
}
