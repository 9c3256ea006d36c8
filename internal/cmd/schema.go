package cmd

import (
	"github.com/invopop/jsonschema"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/spf13/cobra"
)

// schemaID identifies the published plan schema
const schemaID = "https://github.com/quantmind-br/installer-intel/schemas/installplan.json"

// planSchema reflects the JSON schema of core.InstallPlan
func planSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&core.InstallPlan{})
	s.ID = jsonschema.ID(schemaID)
	s.Title = "InstallPlan"
	s.Description = "Static triage result for one Windows installer"
	return s
}

// NewSchemaCmd creates the schema command
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of install plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), planSchema())
		},
	}
}
