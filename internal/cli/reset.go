package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

var resetRevert bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the install session",
	Long: `Discard the install session of the project root.

By default the project files are left as they are. With --revert every
answer is undone first, newest first, restoring the files the session
started from. A broken session cannot be reverted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		result, err := eng.Reset(context.Background(), &engine.ResetRequest{Root: root, Revert: resetRevert})
		if err != nil {
			return explain(err)
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if resetRevert {
			PrintSuccess(fmt.Sprintf("Reverted %s", PrintCount(len(result.Reverted), "answer", "answers")))
			for _, p := range result.Written {
				fmt.Fprintf(stdout, "  restored %s\n", p)
			}
			for _, p := range result.Removed {
				fmt.Fprintf(stdout, "  removed  %s\n", p)
			}
		}
		PrintSuccess("Install session discarded")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetRevert, "revert", false, "Undo every answer before discarding the session")
}
