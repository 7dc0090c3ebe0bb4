package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
	"github.com/rcliao/slowpost/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show letter and storage statistics",
		Args:  cobra.NoArgs,
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsReport struct {
	Storage              *store.Stats         `json:"storage"`
	ByStatus             map[model.Status]int `json:"by_status"`
	Ink                  lifecycle.InkStatus  `json:"ink"`
	AtHome               bool                 `json:"at_home"`
	PendingNotifications int                  `json:"pending_notifications"`
}

func runStats(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustOpenApp(cmd)
	defer a.Close()

	var r statsReport
	var err error
	if r.Storage, err = a.letters.Stats(ctx); err != nil {
		exitErr("stats", err)
	}
	views, err := a.svc.Letters(ctx, nil)
	if err != nil {
		exitErr("stats", err)
	}
	r.ByStatus = map[model.Status]int{}
	for st := range model.ValidStatuses {
		r.ByStatus[st] = 0
	}
	for _, v := range views {
		r.ByStatus[v.Status]++
	}
	if r.Ink, err = a.svc.Ink(ctx); err != nil {
		exitErr("stats", err)
	}
	if r.AtHome, err = a.svc.HomeFlag(ctx); err != nil {
		exitErr("stats", err)
	}
	pending, err := a.outbox.Pending(ctx)
	if err != nil {
		exitErr("stats", err)
	}
	r.PendingNotifications = len(pending)

	if textFormat() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "letters:   %d in transit, %d ready, %d opened\n",
			r.ByStatus[model.StatusInTransit], r.ByStatus[model.StatusReady], r.ByStatus[model.StatusOpened])
		fmt.Fprintf(out, "ink:       %d of %d left\n", r.Ink.Remaining, r.Ink.Limit)
		fmt.Fprintf(out, "reminders: %d pending\n", r.PendingNotifications)
		fmt.Fprintf(out, "storage:   %s in %s (%d unreadable, %d stale temps)\n",
			humanize.Bytes(uint64(r.Storage.SizeBytes)), r.Storage.Dir, r.Storage.Unreadable, r.Storage.StaleTemps)
		return
	}
	printJSON(cmd, r)
}
