package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ink",
		Short: "Show this week's ink",
		Args:  cobra.NoArgs,
		Run:   runInk,
	}

	RootCmd.AddCommand(cmd)
}

func runInk(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	st, err := a.svc.Ink(cmd.Context())
	if err != nil {
		exitErr("ink", err)
	}
	if textFormat() {
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d characters left this week (since %s)\n",
			st.Remaining, st.Limit, st.WeekStart.Format("Mon Jan 2"))
		return
	}
	printJSON(cmd, st)
}
