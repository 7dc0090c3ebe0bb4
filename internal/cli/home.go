package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:       "home [on|off]",
		Short:     "Show or set whether you are at home",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		Run:       runHome,
	}

	RootCmd.AddCommand(cmd)
}

func runHome(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	if len(args) == 1 {
		if err := a.svc.SetHomeFlag(cmd.Context(), args[0] == "on"); err != nil {
			exitErr("set home", err)
		}
	}

	home, err := a.svc.HomeFlag(cmd.Context())
	if err != nil {
		exitErr("home", err)
	}
	if textFormat() {
		if home {
			fmt.Fprintln(cmd.OutOrStdout(), "at home")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "away")
		}
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"at_home":%t}`+"\n", home)
}
