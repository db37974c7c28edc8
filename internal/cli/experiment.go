package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/FlareFunnel/internal/experiments"
	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

func init() {
	experimentCmd := &cobra.Command{
		Use:     "experiment",
		Aliases: []string{"exp"},
		Short:   "Manage A/B copy experiments",
	}
	experimentCmd.AddCommand(newExperimentCreateCmd(), newExperimentListCmd(), newExperimentResultsCmd(), newExperimentWinnerCmd())
	rootCmd.AddCommand(experimentCmd)
}

// withExperiments opens the store and wraps it in the experiment service.
func withExperiments(fn func(*experiments.Service) error) error {
	return withStore(func(st store.Store) error {
		return fn(experiments.NewService(st))
	})
}

func newExperimentCreateCmd() *cobra.Command {
	var (
		variants string
		weights  string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Start a running experiment",
		Long: `Create a running experiment. The first variant is the control.

Example:
  flarefunnel experiment create hero --variants "Know your flares,Plan around your energy" --weights 0.5,0.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := parseWeights(weights)
			if err != nil {
				return err
			}
			return withExperiments(func(svc *experiments.Service) error {
				e, err := svc.Create(cmd.Context(), args[0], splitList(variants), ws)
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created experiment '%s' with %d variants\n", e.Name, len(e.Variants))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&variants, "variants", "", "comma-separated variant copy (required)")
	cmd.Flags().StringVar(&weights, "weights", "", "comma-separated traffic weights, one per variant")
	cmd.MarkFlagRequired("variants")

	return cmd
}

func newExperimentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExperiments(func(svc *experiments.Service) error {
				list, err := svc.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list experiments: %w", err)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No experiments yet.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSTATE\tVARIANTS\tCREATED")
				for _, e := range list {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Name, strings.ToUpper(string(e.State)), len(e.Variants), e.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}

func newExperimentResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <name>",
		Short: "Show conversion rates and confidence intervals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExperiments(func(svc *experiments.Service) error {
				res, err := svc.Results(cmd.Context(), args[0])
				if errors.Is(err, models.ErrNotFound) {
					return fmt.Errorf("experiment '%s' not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to get results: %w", err)
				}
				printResults(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func newExperimentWinnerCmd() *cobra.Command {
	var variantIndex int

	cmd := &cobra.Command{
		Use:   "winner <name>",
		Short: "Declare a winning variant and complete the experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExperiments(func(svc *experiments.Service) error {
				winner := variantIndex
				if err := svc.SetState(cmd.Context(), args[0], models.ExperimentCompleted, &winner); err != nil {
					return fmt.Errorf("failed to set winner: %w", err)
				}
				e, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Declared winner for experiment '%s': variant %d (\"%s\")\n", e.Name, winner, e.Variants[winner])
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&variantIndex, "variant", "v", -1, "winning variant index (required)")
	cmd.MarkFlagRequired("variant")

	return cmd
}

func printResults(w io.Writer, res *experiments.Result) {
	e := res.Experiment
	fmt.Fprintf(w, "EXPERIMENT: %s\n", e.Name)
	fmt.Fprintf(w, "STATE: %s\n", e.State)
	if e.WinnerVariant != nil && *e.WinnerVariant < len(e.Variants) {
		fmt.Fprintf(w, "WINNER: %s\n", e.Variants[*e.WinnerVariant])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "VARIANT           VIEWS    CONVERSIONS  RATE     95% CI")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, v := range res.Variants {
		indicator := ""
		if v.Index == res.LeadingVariant && len(res.Variants) > 1 && v.Views > 0 {
			indicator = " ← LEADING"
		}
		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Views == 0 {
			ciStr = "N/A"
		}
		fmt.Fprintf(w, "%-16s  %-7d  %-11d  %-7s  %s%s\n",
			truncate(v.Name, 16), v.Views, v.Conversions, formatPercent(v.Rate), ciStr, indicator)
	}
	fmt.Fprintln(w)

	if len(res.Variants) > 1 {
		leadingName := res.Variants[res.LeadingVariant].Name
		confPct := res.ConfidenceLevel * 100
		switch {
		case res.Confident:
			fmt.Fprintf(w, "Statistical significance: %.1f%% confident \"%s\" is the winner\n", confPct, leadingName)
		case confPct >= 90:
			fmt.Fprintf(w, "Statistical significance: %.1f%% confident \"%s\" beats control (not yet significant)\n", confPct, leadingName)
		default:
			fmt.Fprintln(w, "Statistical significance: Not enough data to determine a winner")
		}
	}
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseWeights(s string) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	ws := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		ws = append(ws, f)
	}
	return ws, nil
}
