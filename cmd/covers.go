package cmd

import (
	"github.com/spf13/cobra"
)

var coversCmd = &cobra.Command{
	Use:   "covers <url|uuid>",
	Short: "Save volume covers next to downloaded chapters",
	Long: `Save volume covers next to downloaded chapters.

For every chapter of the series that is in the cache, the cover of its
volume is written as a jpeg named after the chapter archive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := setup(cmd.Flags())
		if err != nil {
			if log == nil {
				cmd.PrintErrln("Error:", err)
			} else {
				log.Error().Err(err).Msg("could not start")
			}
			return err
		}

		if err := a.RunCovers(cmd.Context(), args[0]); err != nil {
			log.Error().Err(err).Msgf("failed to download covers for %s", args[0])
			return err
		}

		log.Info().Msg("finished downloading covers")

		return nil
	},
}
