package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/engine"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
)

var (
	answerForce  bool
	answerDryRun bool
)

var answerCmd = &cobra.Command{
	Use:   "answer <question> <code>",
	Short: "Answer one installer question",
	Long: `Answer one installer question with an option code.

Answering a question again replaces the previous answer: its packages,
files and config provider are removed before the new option is applied.
install-type must be answered first and cannot change once any other
question has been answered.`,
	Example: `  mezzio-installer answer install-type flat
  mezzio-installer answer container 3
  mezzio-installer answer router 2 --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().BoolVarP(&answerForce, "force", "f", false,
		"Overwrite project files the session does not manage")
	answerCmd.Flags().BoolVar(&answerDryRun, "dry-run", false,
		"Show the planned changes without applying them")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}
	question, err := questionArg(eng.Catalog(), args[0])
	if err != nil {
		return err
	}

	result, err := eng.ProcessAnswer(context.Background(), &engine.AnswerRequest{
		Root:     root,
		Question: question,
		Code:     args[1],
		Force:    answerForce,
		DryRun:   answerDryRun,
	})
	if err != nil {
		if errors.Is(err, engine.ErrConflict) && result != nil {
			printConflicts(result.Plan)
		}
		return explain(err)
	}

	if jsonOutput {
		return outputJSON(result)
	}

	if answerDryRun {
		PrintSection(fmt.Sprintf("Plan for %s = %s", question, result.Option.Name))
		printPlan(result.Plan)
		return nil
	}

	msg := fmt.Sprintf("%s: %s", question, result.Option.Name)
	if result.Replaced != "" && result.Replaced != args[1] {
		msg += fmt.Sprintf(" (replaced option %s)", result.Replaced)
	}
	PrintSuccess(msg)
	for _, p := range result.Written {
		fmt.Fprintf(stdout, "  wrote   %s\n", p)
	}
	for _, p := range result.Removed {
		fmt.Fprintf(stdout, "  removed %s\n", p)
	}
	return nil
}

func printPlan(plan *planner.AnswerPlan) {
	if len(plan.Operations) == 0 {
		PrintEmptyState("No changes")
		return
	}
	rows := make([][]string, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		var target string
		switch op.Type {
		case planner.OpRequire:
			target = fmt.Sprintf("%s %s:%s", op.Section, op.Package.Name, op.Package.Version)
		case planner.OpProvider:
			target = op.Reference
		case planner.OpWriteFile:
			target = op.RelPath
		case planner.OpAutoload:
			target = fmt.Sprintf("%s => %s", op.Namespace, op.AutoloadPath)
		}
		rows = append(rows, []string{op.Type, target})
	}
	PrintTable([]string{"OPERATION", "TARGET"}, rows)
}

func printConflicts(plan *planner.AnswerPlan) {
	if plan == nil {
		return
	}
	for _, c := range plan.Conflicts {
		PrintError(fmt.Sprintf("%s: %s", c.Path, c.Reason))
	}
	PrintWarning("Move the files aside or answer again with --force to overwrite them")
}
