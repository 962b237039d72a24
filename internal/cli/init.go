package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Start an install session",
	Long: `Start an install session for the project root.

An empty or missing root is seeded with the Mezzio skeleton first. An
existing project must have a composer.json and a config/config.php with a
ConfigAggregator provider list. Running init again resumes the session.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	result, err := eng.Init(context.Background(), &engine.InitRequest{Root: root})
	if err != nil {
		return explain(err)
	}

	if jsonOutput {
		return outputJSON(result)
	}

	if result.Resumed {
		PrintSuccess(fmt.Sprintf("Resumed install session for %s (%s)", result.Root, result.Phase))
		return nil
	}

	PrintSuccess(fmt.Sprintf("Started install session for %s", result.Root))
	if len(result.Seeded) > 0 {
		PrintInfo(fmt.Sprintf("Seeded %s:", PrintCount(len(result.Seeded), "skeleton file", "skeleton files")))
		PrintList(result.Seeded, 1)
	}
	fmt.Fprintln(stdout)
	PrintInfo("Next steps:")
	fmt.Fprintln(stdout, "  1. Choose a layout:   mezzio-installer answer install-type modular")
	fmt.Fprintln(stdout, "  2. List options:      mezzio-installer options container")
	fmt.Fprintln(stdout, "  3. Finish:            mezzio-installer finalize")
	return nil
}
