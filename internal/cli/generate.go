package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagPrompt string
	flagDocx   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask the backend to generate a new item",
	Long:  "Submit a generation request with an inline prompt or a .docx source. When both are given the backend reads the document and ignores the prompt.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPrompt == "" && flagDocx == "" {
			return errors.New("--prompt or --docx is required")
		}
		s, _, err := newSession()
		if err != nil {
			return err
		}
		created, err := s.ctl.Generate(cmd.Context(), flagPrompt, flagDocx)
		if err != nil {
			fail(err)
			return nil
		}
		if err := s.out.WriteRaw(os.Stdout, created); err != nil {
			fail(err)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagPrompt, "prompt", "", "Inline generation prompt")
	generateCmd.Flags().StringVar(&flagDocx, "docx", "", "Path to a .docx source document, resolved by the backend")
	addClientFlags(generateCmd)
}
