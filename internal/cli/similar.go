package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/item"
)

var flagTopK int

var similarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Show items similar to the given one",
	Long:  "Ask the backend for the ranked nearest neighbors of an item. An empty answer is a normal outcome, not an error.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := newSession()
		if err != nil {
			return err
		}
		topK := cfg.TopK
		if flagTopK > 0 {
			topK = flagTopK
		}

		outcome, err := s.ctl.RequestSimilar(cmd.Context(), item.ParseID(args[0]), topK)
		if err != nil {
			fail(err)
			return nil
		}
		if err := s.out.WriteSimilar(os.Stdout, outcome.Result, outcome.NoResults); err != nil {
			fail(err)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVar(&flagTopK, "top-k", 0, "Number of neighbors to request")
	addClientFlags(similarCmd)
}
