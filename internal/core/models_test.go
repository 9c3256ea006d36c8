package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstallPlan(t *testing.T) {
	plan := NewInstallPlan("/tmp/setup.exe", FileTypeEXE, "NSIS", 0.9)

	assert.Equal(t, "/tmp/setup.exe", plan.InputPath)
	assert.Equal(t, FileTypeEXE, plan.FileType)
	assert.NotNil(t, plan.Metadata)
	assert.NotNil(t, plan.InstallCandidates)
	assert.NotNil(t, plan.UninstallCandidates)
	assert.NotNil(t, plan.DetectionRules)
	assert.NotNil(t, plan.Notes)
}

func TestInstallPlan_EmptyCollectionsSerializeAsLists(t *testing.T) {
	plan := NewInstallPlan("a.msi", FileTypeMSI, "MSI", 0.75)

	data, err := json.Marshal(plan)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"install_candidates":[]`)
	assert.Contains(t, s, `"uninstall_candidates":[]`)
	assert.Contains(t, s, `"detection_rules":[]`)
	assert.Contains(t, s, `"notes":[]`)
	assert.Contains(t, s, `"metadata":{}`)
	assert.Contains(t, s, `"file_type":"msi"`)
}

func TestInstallPlan_AppendOrderIsPreserved(t *testing.T) {
	plan := NewInstallPlan("x.exe", FileTypeEXE, "Inno Setup", 0.92)
	plan.AddInstall("first", 0.5)
	plan.AddInstall("second", 0.9)
	plan.AddUninstall("u", 0.55, Evidence{Kind: EvidenceSignature, Detail: "d"})

	require.Len(t, plan.InstallCandidates, 2)
	assert.Equal(t, "first", plan.InstallCandidates[0].Command)
	assert.Equal(t, "second", plan.InstallCandidates[1].Command)
	assert.NotNil(t, plan.InstallCandidates[0].Evidence)
	assert.Equal(t, EvidenceSignature, plan.UninstallCandidates[0].Evidence[0].Kind)
}

func TestInstallPlan_AddNote(t *testing.T) {
	plan := NewInstallPlan("x.exe", FileTypeEXE, "NSIS", 0.9)
	plan.AddNote("plain 100% note")
	plan.AddNotef("Hit: %s (%.2f)", "NSIS", 0.9)
	plan.AddNote("literal %s stays")

	assert.Equal(t, []string{"plain 100% note", "Hit: NSIS (0.90)", "literal %s stays"}, plan.Notes)
}

func TestInstallPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *InstallPlan)
		wantErr bool
	}{
		{"valid", func(_ *InstallPlan) {}, false},
		{"empty installer type", func(p *InstallPlan) { p.InstallerType = "" }, true},
		{"plan confidence above 1", func(p *InstallPlan) { p.Confidence = 1.2 }, true},
		{"negative candidate confidence", func(p *InstallPlan) { p.AddInstall("x", -0.1) }, true},
		{"uninstall confidence above 1", func(p *InstallPlan) { p.AddUninstall("x", 1.01) }, true},
		{"rule confidence above 1", func(p *InstallPlan) { p.AddDetectionRule("k", "v", 2) }, true},
		{"boundaries are valid", func(p *InstallPlan) {
			p.Confidence = 1
			p.AddInstall("x", 0)
			p.AddDetectionRule("k", "v", 1)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewInstallPlan("x.exe", FileTypeEXE, "NSIS", 0.9)
			tt.mutate(plan)

			err := plan.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPlan))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
