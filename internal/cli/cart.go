package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/store"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Work with the approved-item cart",
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approved, not yet committed items",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newSession()
		if err != nil {
			return err
		}
		if err := s.ctl.Load(cmd.Context(), store.ScopeCart); err != nil {
			fail(err)
			return nil
		}
		if err := s.out.WriteItems(os.Stdout, "Cart", s.ctl.Cart()); err != nil {
			fail(err)
		}
		return nil
	},
}

var cartCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit every item in the cart",
	Long:  "Ask the backend to commit all approved, uncommitted items and print its receipt. On failure nothing changes server-side; the items stay in the cart.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newSession()
		if err != nil {
			return err
		}
		receipt, err := s.ctl.CommitCart(cmd.Context())
		if err != nil {
			// A receipt alongside an error means the commit landed but the
			// follow-up cart refresh did not.
			if receipt == nil {
				fail(err)
				return nil
			}
			fmt.Fprintf(os.Stderr, "Warning: cart refresh after commit failed: %v\n", err)
		}
		if err := s.out.WriteRaw(os.Stdout, receipt); err != nil {
			fail(err)
		}
		return nil
	},
}

func init() {
	cartCmd.AddCommand(cartListCmd)
	cartCmd.AddCommand(cartCommitCmd)
	addClientFlags(cartListCmd)
	addClientFlags(cartCommitCmd)
}
