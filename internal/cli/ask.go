package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	askPrompt string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question",
	Long: `Answer one question from the knowledge index and print the grounded
answer with its citations. Builds the index first if no embedding cache
exists yet.

Examples:
  souschef ask -q "how long do I rest a steak"
  souschef ask -q "substitute for buttermilk" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askPrompt, "query", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := newApp(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	answer, err := app.answerer.Answer(ctx, askPrompt)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range answer.Citations {
			fmt.Printf("  [%d:%d] %s\n", c.Start, c.End, c.DocumentID)
		}
	}
	fmt.Printf("\n(%d documents", answer.DocumentsUsed)
	for i, cat := range answer.CategoriesReferenced {
		if i == 0 {
			fmt.Printf(": %s", cat)
		} else {
			fmt.Printf(", %s", cat)
		}
	}
	fmt.Println(")")

	return nil
}
