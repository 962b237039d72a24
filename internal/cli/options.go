package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

var optionsCmd = &cobra.Command{
	Use:   "options [question]",
	Short: "List questions and their options",
	Long: `List the installer questions, or the options of one question.

Inside a project with an install session, each option shows whether it can
be chosen given the answers so far.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOptions,
}

func runOptions(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	cat := eng.Catalog()

	if len(args) == 0 {
		questions := cat.Questions()
		if jsonOutput {
			return outputJSON(questions)
		}
		rows := make([][]string, 0, len(questions))
		for _, q := range questions {
			required := "optional"
			if q.Required {
				required = "required"
			}
			rows = append(rows, []string{string(q.ID), required, q.Prompt})
		}
		PrintTable([]string{"QUESTION", "", "PROMPT"}, rows)
		return nil
	}

	question, err := questionArg(cat, args[0])
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	result, err := eng.Options(context.Background(), &engine.OptionsRequest{Root: root, Question: question})
	if err != nil {
		return explain(err)
	}

	if jsonOutput {
		return outputJSON(result)
	}

	PrintInfo(result.Question.Prompt)
	rows := make([][]string, 0, len(result.Options))
	for _, o := range result.Options {
		code := o.Code
		if o.Code == result.Question.Default {
			code += " (default)"
		}
		mark := ""
		switch {
		case o.Selected:
			mark = "selected"
		case !o.Available:
			mark = "unavailable"
		}
		rows = append(rows, []string{code, o.Name, mark, o.Docs})
	}
	PrintTable([]string{"CODE", "OPTION", "", "DOCS"}, rows)

	for _, o := range result.Options {
		if !o.Available {
			fmt.Fprintln(stdout)
			PrintWarning(fmt.Sprintf("%s: %s", o.Name, o.Reason))
		}
	}
	return nil
}
