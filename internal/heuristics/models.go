package heuristics

// Technology identifies an installer-authoring technology recognized by the signature table
type Technology int

const (
	TechUnknown Technology = iota
	TechInnoSetup
	TechNSIS
	TechInstallShield
	TechWixBurn
	TechSquirrel
	TechMSIX
)

// UnknownInstallerName is reported when no signature matches
const UnknownInstallerName = "Unknown EXE installer"

// UnknownConfidence is the floor confidence of an unrecognized executable
const UnknownConfidence = 0.20

// String returns the display name used in install plans
func (t Technology) String() string {
	switch t {
	case TechInnoSetup:
		return "Inno Setup"
	case TechNSIS:
		return "NSIS"
	case TechInstallShield:
		return "InstallShield"
	case TechWixBurn:
		return "WiX Burn / Bootstrapper"
	case TechSquirrel:
		return "Squirrel"
	case TechMSIX:
		return "MSIX/AppX (hint)"
	default:
		return UnknownInstallerName
	}
}

// ExtractOptions bounds the string extraction pass
type ExtractOptions struct {
	MinLen   int
	MaxCount int
}

// DefaultExtractOptions returns the standard extraction bounds
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		MinLen:   6,
		MaxCount: 4000,
	}
}

// SignatureHit is a single matched signature rule
type SignatureHit struct {
	Name       string
	Technology Technology
	Confidence float64
	Evidence   string
}

// Detection is the matcher verdict: the best technology plus every hit that fired
type Detection struct {
	Technology Technology
	Name       string
	Confidence float64
	Hits       []SignatureHit
}

// Recognized reports whether any signature matched
func (d Detection) Recognized() bool {
	return d.Technology != TechUnknown
}
