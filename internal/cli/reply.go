package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reply <id>",
		Short: "Reply to an opened letter",
		Long:  "Like write, but the draft starts with a quote of the letter being answered.",
		Args:  cobra.ExactArgs(1),
		Run:   runReply,
	}

	cmd.Flags().StringP("route", "r", string(model.RouteLocal), "Route: "+routeNames())

	RootCmd.AddCommand(cmd)
}

func runReply(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	v, err := a.svc.Letter(cmd.Context(), args[0])
	a.Close()
	if err != nil {
		exitErr("reply", err)
	}

	prefill := lifecycle.ReplyPrefill(v.Letter)
	if prefill == "" {
		exitErr("reply", fmt.Errorf("letter %s has not been opened", v.ID))
	}
	composeAndSend(cmd, prefill)
}
