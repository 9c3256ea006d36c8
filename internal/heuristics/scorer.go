package heuristics

import (
	"strings"
)

// SignatureRule maps substrings found in an executable to an installer technology.
// A rule fires when every RequireAll keyword is present and, if AnyOf is
// non-empty, at least one AnyOf keyword is present. Keywords are lower-case.
type SignatureRule struct {
	Technology Technology
	AnyOf      []string
	RequireAll []string
	Confidence float64
	Evidence   string
}

// signatureTable is evaluated in order; order also breaks confidence ties
var signatureTable = []SignatureRule{
	{
		Technology: TechInnoSetup,
		AnyOf:      []string{"inno setup", "innosetup", "unins000.exe"},
		Confidence: 0.92,
		Evidence:   "Matched 'Inno Setup' / 'unins000.exe' strings",
	},
	{
		Technology: TechNSIS,
		AnyOf:      []string{"nsis", "nullsoft", "nsis error"},
		Confidence: 0.90,
		Evidence:   "Matched NSIS/Nullsoft strings",
	},
	{
		Technology: TechInstallShield,
		AnyOf:      []string{"installshield", "isscript", "setup.inx"},
		Confidence: 0.82,
		Evidence:   "Matched InstallShield strings",
	},
	{
		Technology: TechWixBurn,
		RequireAll: []string{"burn"},
		AnyOf:      []string{"wix", "bundle", "bootstrapper"},
		Confidence: 0.80,
		Evidence:   "Matched Burn/WiX bundle strings",
	},
	{
		Technology: TechSquirrel,
		AnyOf:      []string{"squirrel", "update.exe"},
		Confidence: 0.70,
		Evidence:   "Matched Squirrel 'Update.exe' strings",
	},
	{
		Technology: TechMSIX,
		AnyOf:      []string{".appx", ".msix", "appxmanifest.xml"},
		Confidence: 0.55,
		Evidence:   "Matched MSIX/AppX related strings",
	},
}

// Signatures returns a copy of the signature table in evaluation order
func Signatures() []SignatureRule {
	out := make([]SignatureRule, len(signatureTable))
	copy(out, signatureTable)
	return out
}

// Matches reports whether the rule fires against lower-cased text
func (r SignatureRule) Matches(text string) bool {
	for _, kw := range r.RequireAll {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return len(r.RequireAll) > 0
	}
	for _, kw := range r.AnyOf {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Detect extracts strings from data with the default options and matches
// them against the signature table
func Detect(data []byte) Detection {
	return DetectWithOptions(data, DefaultExtractOptions())
}

// DetectWithOptions is Detect with explicit extraction bounds
func DetectWithOptions(data []byte, opts ExtractOptions) Detection {
	return detectText(joinFragments(extract(data, opts)))
}

// joinFragments joins extracted strings with newlines, except that a
// force-flushed piece is glued to its predecessor so keywords spanning a
// flush boundary still match
func joinFragments(frags []fragment) string {
	var b strings.Builder
	for i, f := range frags {
		if i > 0 && !f.cont {
			b.WriteByte('\n')
		}
		b.WriteString(f.text)
	}
	return strings.ToLower(b.String())
}

func detectText(text string) Detection {
	var hits []SignatureHit
	for _, rule := range signatureTable {
		if rule.Matches(text) {
			hits = append(hits, SignatureHit{
				Name:       rule.Technology.String(),
				Technology: rule.Technology,
				Confidence: rule.Confidence,
				Evidence:   rule.Evidence,
			})
		}
	}

	if len(hits) == 0 {
		return Detection{
			Technology: TechUnknown,
			Name:       UnknownInstallerName,
			Confidence: UnknownConfidence,
			Hits:       []SignatureHit{},
		}
	}

	best := chooseBest(hits)
	return Detection{
		Technology: best.Technology,
		Name:       best.Name,
		Confidence: best.Confidence,
		Hits:       hits,
	}
}

// chooseBest returns the first hit with the strictly highest confidence
func chooseBest(hits []SignatureHit) SignatureHit {
	best := hits[0]
	for _, h := range hits[1:] {
		if h.Confidence > best.Confidence {
			best = h
		}
	}
	return best
}
