package cmd

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <url|uuid>",
	Short: "Download a series or a single chapter",
	Long: `Download a series or a single chapter.

Accepts a MangaDex title or chapter url, or the uuid of a series. Chapters
that are already in the cache are skipped.`,
	Example: `  mangadex-dl download https://mangadex.org/title/a96676e5-8ae2-425e-b549-7f15dd34a6d8
  mangadex-dl download -C 1-10 --format pdf a96676e5-8ae2-425e-b549-7f15dd34a6d8`,
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

		if err := a.Run(cmd.Context(), args[0]); err != nil {
			log.Error().Err(err).Msgf("failed to download %s", args[0])
			return err
		}

		log.Info().Msg("finished downloading")

		return nil
	},
}
