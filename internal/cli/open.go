package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a letter that has arrived",
		Long:  "Open a ready letter. Letters that need you at home stay sealed while the home flag is off.",
		Args:  cobra.ExactArgs(1),
		Run:   runOpen,
	}

	RootCmd.AddCommand(cmd)
}

func runOpen(cmd *cobra.Command, args []string) {
	id := args[0]

	a := mustOpenApp(cmd)
	defer a.Close()

	opened, err := a.svc.Open(cmd.Context(), id)
	if err != nil {
		exitErr("open", err)
	}
	if !opened {
		fmt.Fprintf(cmd.OutOrStdout(), `{"ok":false,"id":%q,"opened":false}`+"\n", id)
		return
	}

	v, err := a.svc.Letter(cmd.Context(), id)
	if err != nil {
		exitErr("open", err)
	}
	if textFormat() {
		fmt.Fprintln(cmd.OutOrStdout(), v.Content)
		return
	}
	printJSON(cmd, v)
}
