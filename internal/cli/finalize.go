package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Complete the install session",
	Long: `Check that every required question is answered and every option's
constraints hold, then close the session. A finalized session takes no
further answers.`,
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

		result, err := eng.Finalize(context.Background(), &engine.FinalizeRequest{Root: root})
		if err != nil {
			return explain(err)
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess("Install complete")
		for _, a := range result.Answers {
			PrintLabelValue(string(a.Question), a.Name)
		}
		PrintInfo("\nRun 'composer update' in the project root to install the chosen packages.")
		return nil
	},
}
