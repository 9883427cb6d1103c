package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henderiw/rangetable/pkg/conflict"
	"github.com/henderiw/rangetable/pkg/rangetable"
	"github.com/spf13/cobra"
)

// NewCheckCommand returns the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate an import file and report overlapping ranges per room",
		Args:  cobra.ExactArgs(1),
		RunE:  checkCommandFunc,
	}
	cmd.Flags().Bool("fail-on-conflict", false, "exit non-zero when any room has overlapping ranges")
	return cmd
}

func checkCommandFunc(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	t := rangetable.New(cfg.MaxX, log)
	out := cmd.OutOrStdout()
	summary, err := t.ImportPayload(raw)
	if err != nil {
		switch rangetable.Classify(err) {
		case rangetable.NotRejected:
			return err
		case rangetable.InvalidItems:
			fmt.Fprintln(out, "Validation failed! No ranges were added.")
			fmt.Fprintln(out, "\nErrors found:")
		}
		fmt.Fprintln(out, err)
		return fmt.Errorf("%s: import rejected", args[0])
	}
	fmt.Fprintf(out, "Successfully added %d range(s)!\n", summary.Added)

	report := t.Snapshot().Report
	printReport(out, report)

	failOnConflict, err := cmd.Flags().GetBool("fail-on-conflict")
	if err != nil {
		return err
	}
	if failOnConflict && report.ConflictingPairs > 0 {
		return fmt.Errorf("%s: %d conflicting pair(s)", args[0], report.ConflictingPairs)
	}
	return nil
}

func printReport(w io.Writer, report conflict.Report) {
	for _, rr := range report.Rooms {
		status := "ok"
		if rr.HasConflicts() {
			status = "CONFLICTS"
		}
		ranges := make([]string, 0, len(rr.Intervals))
		for _, iv := range rr.Intervals {
			mark := ""
			if rr.IsConflict(iv.ID) {
				mark = "*"
			}
			ranges = append(ranges, fmt.Sprintf("#%d[%d, %d]%s", iv.ID, iv.From, iv.To, mark))
		}
		fmt.Fprintf(w, "Room %s (%s): %s\n", rr.RoomID, status, strings.Join(ranges, " "))
	}
	fmt.Fprintf(w, "Conflicting pairs: %d, conflicting ranges: %d\n", report.ConflictingPairs, report.ConflictingIntervals)
}
