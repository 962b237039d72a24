package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

// stdin is read by interactive prompts.
var stdin io.Reader = os.Stdin

var (
	installNoInteraction bool
	installAnswers       = map[catalog.QuestionID]*string{}
)

// installFlags maps flag names to the question they answer.
var installFlags = []struct {
	name     string
	question catalog.QuestionID
}{
	{name: "type", question: catalog.QuestionInstallType},
	{name: "container", question: catalog.QuestionContainer},
	{name: "router", question: catalog.QuestionRouter},
	{name: "template", question: catalog.QuestionTemplateEngine},
	{name: "error-handler", question: catalog.QuestionErrorHandler},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the whole install: init, every question, finalize",
	Long: `Run the whole install in one go.

Each question is answered from its flag, or asked interactively. With
--no-interaction unanswered questions take their default. Questions the
session already answered are skipped unless a flag is given.`,
	Example: `  mezzio-installer install
  mezzio-installer install -n --type flat --container 3 --router 2 --template 3`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installNoInteraction, "no-interaction", "n", false,
		"Do not ask; use defaults for questions without a flag")
	for _, f := range installFlags {
		v := new(string)
		installAnswers[f.question] = v
		installCmd.Flags().StringVar(v, f.name, "", fmt.Sprintf("Option code for %s", f.question))
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	eng, _, err := newEngine()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if _, err := eng.Init(ctx, &engine.InitRequest{Root: root}); err != nil {
		return explain(err)
	}
	status, err := eng.Status(ctx, &engine.StatusRequest{Root: root})
	if err != nil {
		return explain(err)
	}
	answered := map[catalog.QuestionID]bool{}
	for _, a := range status.Answers {
		answered[a.Question] = true
	}

	in := bufio.NewReader(stdin)
	for _, q := range eng.Catalog().Questions() {
		flagged := ""
		if v, ok := installAnswers[q.ID]; ok {
			flagged = *v
		}
		if flagged == "" && answered[q.ID] {
			continue
		}

		for {
			code := flagged
			if code == "" {
				code, err = chooseOption(ctx, eng, root, q, in)
				if err != nil {
					return err
				}
			}

			result, err := eng.ProcessAnswer(ctx, &engine.AnswerRequest{Root: root, Question: q.ID, Code: code})
			if err == nil {
				PrintSuccess(fmt.Sprintf("%s: %s", q.ID, result.Option.Name))
				break
			}
			if errors.Is(err, engine.ErrConflict) && result != nil {
				printConflicts(result.Plan)
			}
			// Ask again only when the answer came from a prompt
			if flagged != "" || installNoInteraction || !engine.IsRecoverable(err) || errors.Is(err, engine.ErrConflict) {
				return explain(err)
			}
			PrintError(err.Error())
		}
	}

	result, err := eng.Finalize(ctx, &engine.FinalizeRequest{Root: root})
	if err != nil {
		return explain(err)
	}
	if jsonOutput {
		return outputJSON(result)
	}
	PrintSuccess("Install complete")
	PrintInfo("Run 'composer update' in the project root to install the chosen packages.")
	return nil
}

// chooseOption prompts for an option code, or returns the default when
// prompting is disabled.
func chooseOption(ctx context.Context, eng *engine.Engine, root string, q catalog.Question, in *bufio.Reader) (string, error) {
	if installNoInteraction {
		if q.Default == "" {
			return "", fmt.Errorf("%s has no default; pass --%s", q.ID, flagFor(q.ID))
		}
		return q.Default, nil
	}

	options, err := eng.Options(ctx, &engine.OptionsRequest{Root: root, Question: q.ID})
	if err != nil {
		return "", explain(err)
	}

	fmt.Fprintln(stdout)
	_, _ = labelColor.Fprintf(stdout, "%s\n", q.Prompt)
	for _, o := range options.Options {
		line := fmt.Sprintf("  [%s] %s", o.Code, o.Name)
		if !o.Available {
			_, _ = dimColor.Fprintf(stdout, "%s (unavailable)\n", line)
			continue
		}
		fmt.Fprintln(stdout, line)
	}
	_, _ = infoColor.Fprintf(stdout, "  Make your selection (%s): ", q.Default)

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer for %s: %w", q.ID, err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		code = q.Default
	}
	return code, nil
}

func flagFor(id catalog.QuestionID) string {
	for _, f := range installFlags {
		if f.question == id {
			return f.name
		}
	}
	return string(id)
}
