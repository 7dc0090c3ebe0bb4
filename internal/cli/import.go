package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import letters from JSON",
		Long: "Import letters from stdin. Expects the format produced by export, or a single letter object.\n" +
			"Letters still on their way get an unlock reminder.",
		Args: cobra.NoArgs,
		Run:  runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	letters, err := store.ReadLetters(cmd.InOrStdin())
	if err != nil {
		exitErr("parse json", err)
	}

	a := mustOpenApp(cmd)
	defer a.Close()

	imported, skipped := 0, 0
	for _, l := range letters {
		if err := a.svc.Receive(cmd.Context(), l); err != nil {
			logger.Warn().Err(err).Str("id", l.ID).Msg("letter not imported")
			skipped++
			continue
		}
		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, skipped)
}
