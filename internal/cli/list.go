package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List letters",
		Args:  cobra.NoArgs,
		Run:   runList,
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status: in_transit, ready or opened")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	statusStr, _ := cmd.Flags().GetString("status")

	var filter *model.Status
	if statusStr != "" {
		st := model.Status(statusStr)
		if !model.ValidStatuses[st] {
			exitErr("list", fmt.Errorf("unknown status %q", statusStr))
		}
		filter = &st
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	views, err := a.svc.Letters(cmd.Context(), filter)
	if err != nil {
		exitErr("list", err)
	}

	if textFormat() {
		now := a.clock.Now()
		for _, v := range views {
			fmt.Fprintln(cmd.OutOrStdout(), letterLine(v, now))
		}
		return
	}

	out := make([]lifecycle.View, len(views))
	for i, v := range views {
		out[i] = sealed(v)
	}
	printJSON(cmd, out)
}
