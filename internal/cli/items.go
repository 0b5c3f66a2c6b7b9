package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/item"
	"github.com/examflux/examflux/internal/store"
)

var flagQuery string

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the pending review queue",
	Long:  "Fetch items from the backend and show the ones still awaiting a decision. --query filters by id or status substring.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := s.ctl.Load(ctx, store.ScopeQueue); err != nil {
			fail(err)
			return nil
		}
		title := "Review queue"
		if flagQuery != "" {
			title = fmt.Sprintf("Review queue (filter %q)", flagQuery)
		}
		if err := s.out.WriteItems(os.Stdout, title, s.ctl.Queue(flagQuery)); err != nil {
			fail(err)
		}
		return nil
	},
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := s.ctl.Load(ctx, store.ScopeQueue); err != nil {
			fail(err)
			return nil
		}
		want := item.ParseID(args[0])
		for _, it := range s.ctl.Queue("") {
			if it.ID.Equal(want) {
				if err := s.out.WriteItem(os.Stdout, it); err != nil {
					fail(err)
				}
				return nil
			}
		}
		fail(fmt.Errorf("item %s is not in the review queue", args[0]))
		return nil
	},
}

func init() {
	itemsCmd.Flags().StringVar(&flagQuery, "query", "", "Filter by id or status substring")
	addClientFlags(itemsCmd)
	addClientFlags(itemsShowCmd)
	itemsCmd.AddCommand(itemsShowCmd)
}
