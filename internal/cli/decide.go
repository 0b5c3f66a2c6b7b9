package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/examflux/examflux/internal/item"
)

var approveCmd = &cobra.Command{
	Use:   "approve <id>...",
	Short: "Approve one or more items",
	Long:  "Ask the backend to approve each item. An item leaves the local queue only after the backend confirms; one failure never blocks the rest.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, args, "Approved")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>...",
	Short: "Reject one or more items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, args, "Rejected")
	},
}

func runDecision(cmd *cobra.Command, args []string, verb string) error {
	s, _, err := newSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	decide := s.ctl.ApproveItem
	if verb == "Rejected" {
		decide = s.ctl.RejectItem
	}

	// Each decision stands alone. Report failures per item and keep going.
	failed := 0
	for _, arg := range args {
		id := item.ParseID(arg)
		if err := decide(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: item %s: %v\n", arg, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "%s item %s\n", verb, arg)
	}
	if failed > 0 {
		exitCode = ExitRuntimeError
	}
	return nil
}

func init() {
	addClientFlags(approveCmd)
	addClientFlags(rejectCmd)
}
