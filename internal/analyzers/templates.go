package analyzers

import (
	"strings"

	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
)

// pathPlaceholder is replaced by the quoted installer path
const pathPlaceholder = "{path}"

const manualFollowupValue = "Consider adding trace-install later to generate real detection (files/registry/services)."

// commandTemplate is one candidate command; Command may contain pathPlaceholder
type commandTemplate struct {
	Command    string
	Confidence float64
	Kind       string
	Detail     string
}

func (t commandTemplate) render(path string) string {
	return replacePath(t.Command, path)
}

// technologyTemplate holds everything the EXE plan derives from a technology
type technologyTemplate struct {
	Install   []commandTemplate
	Uninstall []commandTemplate
	Notes     []string
}

// templateFor returns the silent switch guesses for a detected technology
func templateFor(tech heuristics.Technology) technologyTemplate {
	switch tech {
	case heuristics.TechInnoSetup:
		return technologyTemplate{
			Install: []commandTemplate{
				{`{path} /VERYSILENT /SUPPRESSMSGBOXES /NORESTART /SP-`, 0.88, core.EvidenceSignature, "Inno Setup common flags"},
				{`{path} /SILENT /SUPPRESSMSGBOXES /NORESTART /SP-`, 0.62, core.EvidenceSignature, "Inno Setup alternate silent flags"},
			},
			Uninstall: []commandTemplate{
				{`unins000.exe /VERYSILENT /SUPPRESSMSGBOXES /NORESTART /SP-`, 0.55, core.EvidenceSignature, "Inno Setup typical uninstaller name"},
			},
		}
	case heuristics.TechNSIS:
		return technologyTemplate{
			Install: []commandTemplate{
				{`{path} /S`, 0.85, core.EvidenceSignature, "NSIS commonly supports /S"},
			},
		}
	case heuristics.TechInstallShield:
		return technologyTemplate{
			Install: []commandTemplate{
				{`{path} /s /v"/qn /norestart"`, 0.70, core.EvidenceSignature, "InstallShield common quiet pattern"},
			},
		}
	case heuristics.TechWixBurn:
		return technologyTemplate{
			Install: []commandTemplate{
				{`{path} /quiet /norestart`, 0.78, core.EvidenceSignature, "Burn bundles often support /quiet"},
				{`{path} /passive /norestart`, 0.55, core.EvidenceSignature, "Burn bundles sometimes support /passive"},
			},
		}
	case heuristics.TechSquirrel:
		return technologyTemplate{
			Install: []commandTemplate{
				{`{path} --silent`, 0.45, core.EvidenceSignature, "Squirrel varies; low confidence"},
			},
			Notes: []string{
				"Squirrel installers vary a lot; you often need app-specific flags or Update.exe behaviors.",
			},
		}
	case heuristics.TechMSIX:
		return technologyTemplate{
			Install: []commandTemplate{
				{`Add-AppxPackage <path-to-msix-or-appx>`, 0.35, core.EvidenceHint, "Detected AppX/MSIX strings but input is EXE"},
			},
			Notes: []string{
				"Input is EXE but contains MSIX/AppX hints. It may be a wrapper/bootstrapper.",
			},
		}
	case heuristics.TechUnknown:
		return unknownTemplate()
	}
	// values outside the enum are treated as unrecognized
	return unknownTemplate()
}

func unknownTemplate() technologyTemplate {
	return technologyTemplate{
		Install: []commandTemplate{
			{`{path} /S`, 0.25, core.EvidenceFallback, "Generic guess (/S) - very unreliable"},
			{`{path} /quiet /norestart`, 0.25, core.EvidenceFallback, "Generic guess (/quiet) - very unreliable"},
		},
		Notes: []string{
			"Unknown installer type; silent switches are guesses. Add more signatures to improve.",
		},
	}
}

// quotePath wraps path in double quotes for cmd.exe
func quotePath(path string) string {
	return `"` + path + `"`
}

func replacePath(command, path string) string {
	return strings.ReplaceAll(command, pathPlaceholder, quotePath(path))
}
