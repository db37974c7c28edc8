package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/FlareFunnel/internal/content"
	"github.com/BTreeMap/FlareFunnel/internal/models"
)

var (
	testimonialQ1      string
	testimonialQ2      string
	testimonialFlipped bool
	testimonialScores  bool
	testimonialLimit   int

	watchListWidget    string
	watchListValue     string
	watchListCondition string

	jsonOutput bool
)

var testimonialCmd = &cobra.Command{
	Use:   "testimonial",
	Short: "Show the testimonial selected for a set of answers",
	Long: `Show the testimonial the funnel would display for a condition domain (Q1) and
pain point (Q2). With --scores, print the full ranking instead.`,
	Args: cobra.NoArgs,
	RunE: runTestimonial,
}

var watchListCmd = &cobra.Command{
	Use:   "watchlist <pain-point>",
	Short: "Show the watch list for a pain point and baseline answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchList,
}

func init() {
	testimonialCmd.Flags().StringVar(&testimonialQ1, "q1", "", "condition domain answer")
	testimonialCmd.Flags().StringVar(&testimonialQ2, "q2", "", "pain point answer")
	testimonialCmd.Flags().BoolVar(&testimonialFlipped, "flipped", true, "prefer flipped (hopeful) testimonials")
	testimonialCmd.Flags().BoolVar(&testimonialScores, "scores", false, "print the scored ranking")
	testimonialCmd.Flags().IntVar(&testimonialLimit, "limit", 10, "rows to print with --scores (0 for all)")
	testimonialCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	watchListCmd.Flags().StringVar(&watchListWidget, "widget", content.WidgetSlider, "Q3 widget type")
	watchListCmd.Flags().StringVar(&watchListValue, "value", "", "Q3 answer; comma-separated for chips")
	watchListCmd.Flags().StringVar(&watchListCondition, "condition", "", "condition key")
	watchListCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	rootCmd.AddCommand(testimonialCmd)
	rootCmd.AddCommand(watchListCmd)
}

func runTestimonial(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if testimonialScores {
		ranked := content.ScoreTestimonials(testimonialQ1, testimonialQ2, testimonialFlipped)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if testimonialLimit > 0 && len(ranked) > testimonialLimit {
			ranked = ranked[:testimonialLimit]
		}
		if jsonOutput {
			return printJSON(out, ranked)
		}
		printTestimonialRanking(out, ranked)
		return nil
	}

	t := content.SelectTestimonialForUser(testimonialQ1, testimonialQ2, testimonialFlipped)
	if jsonOutput {
		return printJSON(out, t)
	}
	printTestimonial(out, t)
	return nil
}

func runWatchList(cmd *cobra.Command, args []string) error {
	q3 := models.Q3Data{
		WidgetType:  watchListWidget,
		WidgetValue: parseWidgetValue(watchListWidget, watchListValue),
		Condition:   watchListCondition,
	}
	wl := content.GetWatchList(args[0], q3)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), wl)
	}
	printWatchList(cmd.OutOrStdout(), wl)
	return nil
}

// parseWidgetValue turns a flag value into what the mobile client would send.
func parseWidgetValue(widgetType, raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	switch widgetType {
	case content.WidgetChips:
		var chips []string
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				chips = append(chips, c)
			}
		}
		return chips
	case content.WidgetSlider:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

func printTestimonial(w io.Writer, t models.Testimonial) {
	fmt.Fprintf(w, "ID:         %s\n", t.ID)
	fmt.Fprintf(w, "QUOTE:      \"%s\"\n", t.Quote)
	fmt.Fprintf(w, "SOURCE:     %s\n", t.Source)
	fmt.Fprintf(w, "CONDITION:  %s\n", t.Condition)
	fmt.Fprintf(w, "PAIN POINT: %s\n", t.PainPoint)
	fmt.Fprintf(w, "FLIPPED:    %t\n", t.IsFlipped)
}

func printTestimonialRanking(w io.Writer, ranked []content.ScoredTestimonial) {
	fmt.Fprintln(w, "SCORE  ID                                        CONDITION         PAIN POINT")
	fmt.Fprintln(w, strings.Repeat("─", 86))
	for _, st := range ranked {
		fmt.Fprintf(w, "%5d  %-40s  %-16s  %s\n",
			st.Score, truncate(st.Testimonial.ID, 40), truncate(st.Testimonial.Condition, 16), st.Testimonial.PainPoint)
	}
}

func printWatchList(w io.Writer, wl models.WatchList) {
	fmt.Fprintf(w, "CATEGORY:  %s\n", wl.Category)
	if wl.Condition != "" {
		fmt.Fprintf(w, "CONDITION: %s\n", wl.Condition)
	}
	if wl.Baseline != "" {
		fmt.Fprintf(w, "BASELINE:  %s (%s)\n", wl.Baseline, wl.BaselineLabel)
	} else {
		fmt.Fprintf(w, "BASELINE:  not set (%s)\n", wl.BaselineLabel)
	}
	fmt.Fprintln(w, "WATCHING:")
	for _, item := range wl.Items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
