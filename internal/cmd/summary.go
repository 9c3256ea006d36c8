package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/ui"
)

// printPlanSummary renders a read-only view of plan
func printPlanSummary(w io.Writer, plan *core.InstallPlan) {
	ui.Bold.Fprintln(w, "installer-intel")
	ui.Muted.Fprintln(w, plan.InputPath)
	ui.Muted.Fprintln(w, "────────────────────────────────────────")

	ui.Bold.Fprint(w, "Type: ")
	fmt.Fprintf(w, "%s  (confidence %s)\n", plan.InstallerType, ui.ColorizeConfidence(plan.Confidence))
	ui.Bold.Fprint(w, "File: ")
	fmt.Fprintln(w, ui.ColorizeFileType(string(plan.FileType)))

	if len(plan.Metadata) > 0 {
		printSection(w, "Metadata")
		keys := make([]string, 0, len(plan.Metadata))
		for k := range plan.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := newTable(w, "Key", "Value")
		for _, k := range keys {
			table.Append(k, metadataValue(k, plan.Metadata[k]))
		}
		table.Render()
	}

	printCandidates(w, "Install candidates", plan.InstallCandidates)
	printCandidates(w, "Uninstall candidates", plan.UninstallCandidates)

	if len(plan.DetectionRules) > 0 {
		printSection(w, "Detection rules")
		table := newTable(w, "Confidence", "Kind", "Value")
		for _, r := range plan.DetectionRules {
			table.Append(fmt.Sprintf("%.2f", r.Confidence), r.Kind, r.Value)
		}
		table.Render()
	}

	if len(plan.Notes) > 0 {
		printSection(w, "Notes")
		for _, n := range plan.Notes {
			fmt.Fprintf(w, "  %s %s\n", ui.Bullet, n)
		}
	}
}

func printCandidates(w io.Writer, title string, candidates []core.CommandCandidate) {
	if len(candidates) == 0 {
		return
	}
	printSection(w, title)
	table := newTable(w, "Confidence", "Command")
	for _, c := range candidates {
		table.Append(fmt.Sprintf("%.2f", c.Confidence), c.Command)
	}
	table.Render()
}

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	ui.Highlight.Fprintln(w, title)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)
}

// metadataValue renders a metadata value; absent values are blank and
// SizeBytes is humanized
func metadataValue(key string, v any) string {
	if v == nil {
		return ""
	}
	if key == "SizeBytes" {
		switch n := v.(type) {
		case int:
			return fmt.Sprintf("%s (%d bytes)", humanize.Bytes(uint64(n)), n)
		case int64:
			return fmt.Sprintf("%s (%d bytes)", humanize.Bytes(uint64(n)), n)
		case float64:
			return fmt.Sprintf("%s (%.0f bytes)", humanize.Bytes(uint64(n)), n)
		}
	}
	return fmt.Sprint(v)
}
