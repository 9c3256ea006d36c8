package cmd

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/spf13/cobra"
)

// signatureEntry is the JSON view of a signature rule
type signatureEntry struct {
	Name       string   `json:"name"`
	AnyOf      []string `json:"any_of"`
	RequireAll []string `json:"require_all"`
	Confidence float64  `json:"confidence"`
	Evidence   string   `json:"evidence"`
}

// NewSignaturesCmd creates the signatures command
func NewSignaturesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "signatures [filter]",
		Short: "List the EXE installer signatures",
		Long: `List the keyword signatures used to recognize EXE installer technologies,
in evaluation order. An optional filter fuzzy-matches technology names and keywords.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			rules := filterSignatures(heuristics.Signatures(), filter)

			if jsonOutput {
				entries := make([]signatureEntry, 0, len(rules))
				for _, r := range rules {
					entries = append(entries, signatureEntry{
						Name:       r.Technology.String(),
						AnyOf:      nonNil(r.AnyOf),
						RequireAll: nonNil(r.RequireAll),
						Confidence: r.Confidence,
						Evidence:   r.Evidence,
					})
				}
				return writeJSON(out, entries)
			}

			if len(rules) == 0 {
				ui.Warning.Fprintf(out, "No signatures match %q\n", filter)
				return nil
			}

			table := newTable(out, "Technology", "Requires", "Any of", "Confidence")
			for _, r := range rules {
				table.Append(
					r.Technology.String(),
					strings.Join(r.RequireAll, ", "),
					strings.Join(r.AnyOf, ", "),
					fmt.Sprintf("%.2f", r.Confidence),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

// filterSignatures keeps rules whose name or any keyword fuzzy-matches filter
func filterSignatures(rules []heuristics.SignatureRule, filter string) []heuristics.SignatureRule {
	if filter == "" {
		return rules
	}

	var out []heuristics.SignatureRule
	for _, r := range rules {
		candidates := append([]string{r.Technology.String()}, r.AnyOf...)
		candidates = append(candidates, r.RequireAll...)
		for _, c := range candidates {
			if fuzzy.MatchNormalizedFold(filter, c) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
