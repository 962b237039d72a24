package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/clock"
	"github.com/geerteltink/mezzio-skeleton/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show install session status",
	Long:  `Display the answers, managed config providers and pending questions of the install session.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		result, err := eng.Status(context.Background(), &engine.StatusRequest{Root: root})
		if err != nil {
			return explain(err)
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if !result.Exists {
			PrintEmptyState(fmt.Sprintf("No install session for %s", result.Root))
			return nil
		}

		PrintLabelValue("Project", result.Root)
		PrintLabelValue("Session", result.SessionID)
		PrintLabelValue("State", result.StateFile)
		PrintLabelValue("Phase", string(result.Phase))
		if result.Layout != "" {
			PrintLabelValue("Layout", string(result.Layout))
		}
		PrintLabelValue("Updated", result.UpdatedAt.Local().Format(time.RFC1123))
		if result.Broken {
			PrintLabelValueWithColor("Broken", result.BrokenReason, errorColor)
		}
		if holder, err := newLocker(settings, &clock.RealClock{}).Holder(result.SessionID); err == nil && holder != nil {
			PrintLabelValueWithColor("Locked", holderHint(holder), warningColor)
		}

		PrintSection("Answers")
		if len(result.Answers) == 0 {
			PrintEmptyState("No questions answered yet")
		} else {
			rows := make([][]string, 0, len(result.Answers))
			for _, a := range result.Answers {
				rows = append(rows, []string{string(a.Question), a.Code, a.Name, a.Provider})
			}
			PrintTable([]string{"QUESTION", "CODE", "OPTION", "PROVIDER"}, rows)
		}

		if len(result.Pending) > 0 {
			PrintSection("Pending")
			pending := make([]string, 0, len(result.Pending))
			for _, q := range result.Pending {
				pending = append(pending, string(q))
			}
			PrintList(pending, 1)
		}

		if len(result.Drifted) > 0 {
			fmt.Fprintln(stdout)
			PrintWarning(fmt.Sprintf("%s changed outside the installer:",
				PrintCount(len(result.Drifted), "managed file", "managed files")))
			PrintList(result.Drifted, 1)
		}
		return nil
	},
}
