//go:build windows

package msi

import "github.com/rs/zerolog"

// platformReaders returns the in-process readers backed by msi.dll and COM
func platformReaders(log *zerolog.Logger) map[string]PropertyReader {
	return map[string]PropertyReader{
		KindDLL: NewDLLReader(log),
		KindCOM: NewCOMReader(log),
	}
}
