package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/FlareFunnel/internal/funnel"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the built-in ad, landing and persona copy to the database",
		Long: `Upsert the built-in campaign copy for every product. Existing rows with the
same kind and slug are overwritten, so run it before editing copy by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st store.Store) error {
				entries := funnel.DefaultCopyEntries()
				for _, c := range entries {
					if err := st.UpsertCampaignCopy(cmd.Context(), c); err != nil {
						return fmt.Errorf("failed to seed %s/%s: %w", c.Kind, c.Slug, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d campaign copy entries\n", len(entries))
				return nil
			})
		},
	}
}
