package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage unlock reminders",
	}

	resync := &cobra.Command{
		Use:   "resync",
		Short: "Schedule reminders for every letter still on its way",
		Args:  cobra.NoArgs,
		Run:   runNotifyResync,
	}
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List reminders that have not fired yet",
		Args:  cobra.NoArgs,
		Run:   runNotifyPending,
	}

	cmd.AddCommand(resync, pending)
	RootCmd.AddCommand(cmd)
}

func runNotifyResync(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	n, err := a.svc.Resync(cmd.Context())
	if err != nil {
		exitErr("resync", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"scheduled":%d}`+"\n", n)
}

func runNotifyPending(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	pending, err := a.outbox.Pending(cmd.Context())
	if err != nil {
		exitErr("pending", err)
	}

	if textFormat() {
		now := a.clock.Now()
		for _, n := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  fires %s\n", n.LetterID, humanize.RelTime(n.FireAt, now, "ago", "from now"))
		}
		return
	}
	printJSON(cmd, pending)
}
