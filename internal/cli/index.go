package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"souschef/config"
	"souschef/internal/usecase"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the embedding index",
	Long: `Load the knowledge sources, embed them through the gateway, and write
the embedding cache. With a valid cache this is a no-op unless --rebuild
is given.

Examples:
  souschef index             # Build (reuses the cache when present)
  souschef index --rebuild   # Re-embed everything from the sources`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "ignore the embedding cache and re-embed")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := config.EnsureStateDir(rootDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Embedding documents"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		bar.Set(done)
	}

	app, err := newApp(progress)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var idx *usecase.Index
	if indexRebuild {
		idx, err = app.manager.Rebuild(ctx)
	} else {
		idx, err = app.manager.Index(ctx)
	}
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("Indexed %d documents (%d-dim embeddings) in %v\n",
		idx.Size(), idx.Dimension(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Cache: %s\n", app.cfg.CachePath(rootDir))

	return nil
}
