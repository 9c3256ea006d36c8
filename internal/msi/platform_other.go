//go:build !windows

package msi

import "github.com/rs/zerolog"

// platformReaders returns no native readers outside Windows
func platformReaders(_ *zerolog.Logger) map[string]PropertyReader {
	return map[string]PropertyReader{}
}
