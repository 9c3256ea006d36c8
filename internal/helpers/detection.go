package helpers

import (
	"bytes"

	"github.com/quantmind-br/installer-intel/internal/core"
)

// Content kinds recognized from the leading bytes of a file
const (
	ContentPE       = "PE executable"
	ContentOLE      = "OLE compound file"
	ContentZip      = "ZIP archive"
	ContentScript   = "script"
	ContentEmpty    = "empty"
	ContentUnknown  = "unknown"
	sniffHeaderSize = 512
)

var (
	magicMZ  = []byte{'M', 'Z'}
	magicOLE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	magicZip = []byte{'P', 'K', 0x03, 0x04}
)

// SniffContent names the container format of data by its magic bytes
func SniffContent(data []byte) string {
	if len(data) > sniffHeaderSize {
		data = data[:sniffHeaderSize]
	}

	switch {
	case len(data) == 0:
		return ContentEmpty
	case bytes.HasPrefix(data, magicOLE):
		return ContentOLE
	case bytes.HasPrefix(data, magicMZ):
		return ContentPE
	case bytes.HasPrefix(data, magicZip):
		return ContentZip
	case bytes.HasPrefix(data, []byte("#!")):
		return ContentScript
	default:
		return ContentUnknown
	}
}

// ContentMatches reports whether sniffed content agrees with the file type
// chosen from the extension
func ContentMatches(fileType core.FileType, content string) bool {
	switch fileType {
	case core.FileTypeEXE:
		return content == ContentPE
	case core.FileTypeMSI:
		return content == ContentOLE
	default:
		return false
	}
}
