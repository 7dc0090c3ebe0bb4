package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export letters as JSON",
		Long:  "Export every letter, sealed or not, as a JSON array. The output can be read back with import.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	a := mustOpenApp(cmd)
	defer a.Close()

	letters, err := a.letters.LoadAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	if err := store.WriteLetters(cmd.OutOrStdout(), letters); err != nil {
		exitErr("export", err)
	}
}
