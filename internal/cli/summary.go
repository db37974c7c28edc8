package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/FlareFunnel/internal/funnel"
	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
	"github.com/BTreeMap/FlareFunnel/internal/summary"
)

func init() {
	rootCmd.AddCommand(newSummaryCmd())
}

func newSummaryCmd() *cobra.Command {
	var (
		templateOnly bool
		showContext  bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "summary <session-id>",
		Short: "Generate the conversion summary for a modal session",
		Long: `Assemble the stored context of a modal session, generate its conversion
summary and log the generation like the API does.

Missing session data is filled with defaults, so an unknown session id still
produces a summary. Without OPENAI_API_KEY, or with --template, the template
copy is used.

Example:
  flarefunnel summary 3f2c9a --context`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st store.Store) error {
				gen := newSummaryGenerator()
				if templateOnly {
					gen = summary.NewGenerator(nil)
				}
				svc := funnel.NewService(st, gen)
				out := cmd.OutOrStdout()

				if showContext {
					uc := svc.Assembler().Assemble(cmd.Context(), args[0])
					if err := printJSON(out, uc); err != nil {
						return err
					}
				}

				generation, err := svc.GenerateForSession(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to generate summary: %w", err)
				}
				if asJSON {
					return printJSON(out, generation)
				}
				printSummary(out, generation.Result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&templateOnly, "template", false, "skip the LLM and use template copy")
	cmd.Flags().BoolVar(&showContext, "context", false, "print the assembled context first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the logged generation as JSON")

	return cmd
}

func printSummary(w io.Writer, r models.SummaryGenerationResult) {
	fmt.Fprintf(w, "TITLE: %s\n", r.Summary.Title)
	fmt.Fprintln(w, "BENEFITS:")
	for _, b := range r.Summary.Benefits {
		fmt.Fprintf(w, "  • %s\n", b)
	}
	fmt.Fprintf(w, "CTA:   %s\n", r.Summary.CTAText)
	fmt.Fprintln(w, strings.Repeat("─", 40))
	fmt.Fprintf(w, "MODEL: %s  TEMPLATE: %s  TOKENS: %d  LATENCY: %dms\n",
		r.Metadata.ModelUsed, r.Metadata.PromptTemplateID, r.Metadata.TokensUsed, r.Metadata.LatencyMs)
}
