package core

import (
	"errors"
	"fmt"
)

// FileType represents the kind of installer package being analyzed
type FileType string

const (
	FileTypeMSI FileType = "msi"
	FileTypeEXE FileType = "exe"
)

// Evidence kinds attached to candidates and rules
const (
	EvidenceSignature = "signature"
	EvidenceHint      = "hint"
	EvidenceFallback  = "fallback"
	EvidenceNote      = "note"
	EvidenceMSI       = "msi"
)

// Detection rule kinds
const (
	RuleMSIProductCode = "msi_product_code"
	RuleManualFollowup = "manual_followup"
)

// Evidence is a single justification fragment for a candidate or rule
type Evidence struct {
	Kind   string `json:"kind" yaml:"kind"`
	Detail string `json:"detail" yaml:"detail"`
}

// CommandCandidate is one shell invocation believed to install or uninstall the target
type CommandCandidate struct {
	Command    string     `json:"command" yaml:"command"`
	Confidence float64    `json:"confidence" yaml:"confidence" jsonschema:"minimum=0,maximum=1"`
	Evidence   []Evidence `json:"evidence" yaml:"evidence"`
}

// DetectionRule is a hint for building a post-install detection check later.
// It is never evaluated here.
type DetectionRule struct {
	Kind       string     `json:"kind" yaml:"kind"`
	Value      string     `json:"value" yaml:"value"`
	Confidence float64    `json:"confidence" yaml:"confidence" jsonschema:"minimum=0,maximum=1"`
	Evidence   []Evidence `json:"evidence" yaml:"evidence"`
}

// InstallPlan is the result of analyzing one installer package.
// Candidate order is significant: the first entry is the primary guess.
type InstallPlan struct {
	InputPath           string             `json:"input_path" yaml:"input_path"`
	FileType            FileType           `json:"file_type" yaml:"file_type" jsonschema:"enum=msi,enum=exe"`
	InstallerType       string             `json:"installer_type" yaml:"installer_type"`
	Confidence          float64            `json:"confidence" yaml:"confidence" jsonschema:"minimum=0,maximum=1"`
	Metadata            map[string]any     `json:"metadata" yaml:"metadata"`
	InstallCandidates   []CommandCandidate `json:"install_candidates" yaml:"install_candidates"`
	UninstallCandidates []CommandCandidate `json:"uninstall_candidates" yaml:"uninstall_candidates"`
	DetectionRules      []DetectionRule    `json:"detection_rules" yaml:"detection_rules"`
	Notes               []string           `json:"notes" yaml:"notes"`
}

// NewInstallPlan creates a plan with every collection initialized so it
// serializes as empty lists rather than null
func NewInstallPlan(inputPath string, fileType FileType, installerType string, confidence float64) *InstallPlan {
	return &InstallPlan{
		InputPath:           inputPath,
		FileType:            fileType,
		InstallerType:       installerType,
		Confidence:          confidence,
		Metadata:            map[string]any{},
		InstallCandidates:   []CommandCandidate{},
		UninstallCandidates: []CommandCandidate{},
		DetectionRules:      []DetectionRule{},
		Notes:               []string{},
	}
}

// AddInstall appends an install candidate
func (p *InstallPlan) AddInstall(command string, confidence float64, evidence ...Evidence) {
	p.InstallCandidates = append(p.InstallCandidates, newCandidate(command, confidence, evidence))
}

// AddUninstall appends an uninstall candidate
func (p *InstallPlan) AddUninstall(command string, confidence float64, evidence ...Evidence) {
	p.UninstallCandidates = append(p.UninstallCandidates, newCandidate(command, confidence, evidence))
}

// AddDetectionRule appends a detection rule
func (p *InstallPlan) AddDetectionRule(kind, value string, confidence float64, evidence ...Evidence) {
	if evidence == nil {
		evidence = []Evidence{}
	}
	p.DetectionRules = append(p.DetectionRules, DetectionRule{
		Kind:       kind,
		Value:      value,
		Confidence: confidence,
		Evidence:   evidence,
	})
}

// AddNote appends a free-form note verbatim
func (p *InstallPlan) AddNote(note string) {
	p.Notes = append(p.Notes, note)
}

// AddNotef appends a note built from a format string
func (p *InstallPlan) AddNotef(format string, args ...any) {
	p.Notes = append(p.Notes, fmt.Sprintf(format, args...))
}

func newCandidate(command string, confidence float64, evidence []Evidence) CommandCandidate {
	if evidence == nil {
		evidence = []Evidence{}
	}
	return CommandCandidate{
		Command:    command,
		Confidence: confidence,
		Evidence:   evidence,
	}
}

// ErrInvalidPlan is returned by Validate when a plan breaks a model invariant
var ErrInvalidPlan = errors.New("invalid install plan")

// Validate checks the model invariants: non-empty installer type and every
// confidence inside [0,1]
func (p *InstallPlan) Validate() error {
	if p.InstallerType == "" {
		return fmt.Errorf("%w: installer_type is empty", ErrInvalidPlan)
	}
	if !ValidConfidence(p.Confidence) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidPlan, p.Confidence)
	}
	for i, c := range p.InstallCandidates {
		if !ValidConfidence(c.Confidence) {
			return fmt.Errorf("%w: install candidate %d confidence %v out of range", ErrInvalidPlan, i, c.Confidence)
		}
	}
	for i, c := range p.UninstallCandidates {
		if !ValidConfidence(c.Confidence) {
			return fmt.Errorf("%w: uninstall candidate %d confidence %v out of range", ErrInvalidPlan, i, c.Confidence)
		}
	}
	for i, r := range p.DetectionRules {
		if !ValidConfidence(r.Confidence) {
			return fmt.Errorf("%w: detection rule %d confidence %v out of range", ErrInvalidPlan, i, r.Confidence)
		}
	}
	return nil
}

// ValidConfidence reports whether c lies in [0,1]
func ValidConfidence(c float64) bool {
	return c >= 0 && c <= 1
}

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitInvalidArgs = 2
	ExitAnalysis    = 3
	ExitDatabase    = 5
	ExitInterrupted = 130
)
