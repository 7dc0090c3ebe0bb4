package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a letter",
		Long: "Compose a letter from stdin, one line at a time. Typing speed and weekly ink are limited.\n" +
			"Commands: /del N removes the last N characters, /send sends, /cancel discards. End of input sends.",
		Args: cobra.NoArgs,
		Run:  runWrite,
	}

	cmd.Flags().StringP("route", "r", string(model.RouteLocal), "Route: "+routeNames())

	RootCmd.AddCommand(cmd)
}

func routeNames() string {
	var names []string
	for _, r := range model.Routes() {
		names = append(names, fmt.Sprintf("%s (%s)", r, r.DisplayName()))
	}
	return strings.Join(names, ", ")
}

func runWrite(cmd *cobra.Command, args []string) {
	composeAndSend(cmd, "")
}

func composeAndSend(cmd *cobra.Command, prefill string) {
	routeStr, _ := cmd.Flags().GetString("route")
	route, err := model.ParseRoute(routeStr)
	if err != nil {
		exitErr("route", err)
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	s := draftSession{svc: a.svc, in: cmd.InOrStdin(), hints: os.Stderr}
	l, err := s.run(cmd.Context(), prefill, route)
	if err != nil {
		exitErr("write", err)
	}
	if l == nil {
		fmt.Fprintln(cmd.OutOrStdout(), `{"ok":false,"sent":false}`)
		return
	}

	if textFormat() {
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s via %s, arrives %s\n", l.ID, route.DisplayName(), l.UnlockAt.In(a.loc).Format("2006-01-02 15:04"))
		return
	}
	printJSON(cmd, l)
}
