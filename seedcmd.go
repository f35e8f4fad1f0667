package main

import (
	"glammate/config"
	"glammate/seed"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the official explore posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)

			st, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close(cmd.Context())

			n, err := seed.Run(cmd.Context(), st.store.Posts)
			if err != nil {
				return err
			}
			log.Info().Int("inserted", n).Msg("seeding complete")
			return nil
		},
	}
}
