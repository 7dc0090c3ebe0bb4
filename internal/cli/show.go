package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one letter",
		Long:  "Show a letter's status. The content is only shown once the letter has been opened.",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	v, err := a.svc.Letter(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}

	if textFormat() {
		fmt.Fprintln(cmd.OutOrStdout(), letterLine(*v, a.clock.Now()))
		if v.Opened() {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", v.Content)
		}
		return
	}
	printJSON(cmd, sealed(*v))
}
