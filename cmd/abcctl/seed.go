package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abctag/abc-server/internal/seed"
	"github.com/abctag/abc-server/internal/store/sqlite"
)

func newSeedCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample catalogue",
		Long: `Inserts four sample books with stored categories and score vectors.
Nothing is inserted when the database already holds books, unless --force is given.`,
		Example: `  abcctl seed
  abcctl seed --db-path ./data/abc.db --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}

			st, err := sqlite.Open(cfg.Database.Path, log.Logger)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := seed.Run(cmd.Context(), st, seed.Catalogue, force, log.Logger)
			if err != nil {
				return err
			}

			if res.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already holds %d books, nothing seeded (use --force)\n", cfg.Database.Path, res.Existing)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books into %s\n", res.Inserted, cfg.Database.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Insert even when the database is not empty")

	return cmd
}
