//go:build windows

package msi

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

var (
	modmsi                   = windows.NewLazySystemDLL("msi.dll")
	procMsiOpenDatabaseW     = modmsi.NewProc("MsiOpenDatabaseW")
	procMsiDatabaseOpenViewW = modmsi.NewProc("MsiDatabaseOpenViewW")
	procMsiViewExecute       = modmsi.NewProc("MsiViewExecute")
	procMsiViewFetch         = modmsi.NewProc("MsiViewFetch")
	procMsiRecordGetStringW  = modmsi.NewProc("MsiRecordGetStringW")
	procMsiCloseHandle       = modmsi.NewProc("MsiCloseHandle")
)

const (
	errorSuccess  = 0
	errorMoreData = 234

	// MSIDBOPEN_READONLY is the null persist pointer
	msiDBOpenReadOnly = 0
)

// DLLReader reads properties by calling msi.dll directly
type DLLReader struct {
	log *zerolog.Logger
}

// NewDLLReader creates a DLLReader
func NewDLLReader(log *zerolog.Logger) *DLLReader {
	return &DLLReader{log: log}
}

// Name implements PropertyReader
func (r *DLLReader) Name() string { return KindDLL }

// Available implements PropertyReader
func (r *DLLReader) Available() bool {
	return modmsi.Load() == nil
}

// ReadProperty implements PropertyReader
func (r *DLLReader) ReadProperty(path, name string) (string, error) {
	if err := security.ValidatePropertyName(name); err != nil {
		return "", err
	}

	value, err := r.read(path, name)
	if err != nil {
		if r.log != nil {
			r.log.Debug().
				Err(err).
				Str("msi", path).
				Str("property", name).
				Msg("msi.dll property read failed")
		}
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", ErrPropertyNotFound
	}
	return value, nil
}

func (r *DLLReader) read(path, name string) (string, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", fmt.Errorf("encode path: %w", err)
	}

	var hDB uint32
	ret, _, _ := procMsiOpenDatabaseW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		msiDBOpenReadOnly,
		uintptr(unsafe.Pointer(&hDB)),
	)
	if ret != errorSuccess {
		return "", fmt.Errorf("MsiOpenDatabase: error %d", ret)
	}
	defer closeHandle(hDB)

	query := fmt.Sprintf("SELECT `Value` FROM `Property` WHERE `Property`='%s'", name)
	queryPtr, err := windows.UTF16PtrFromString(query)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}

	var hView uint32
	ret, _, _ = procMsiDatabaseOpenViewW.Call(
		uintptr(hDB),
		uintptr(unsafe.Pointer(queryPtr)),
		uintptr(unsafe.Pointer(&hView)),
	)
	if ret != errorSuccess {
		return "", fmt.Errorf("MsiDatabaseOpenView: error %d", ret)
	}
	defer closeHandle(hView)

	if ret, _, _ = procMsiViewExecute.Call(uintptr(hView), 0); ret != errorSuccess {
		return "", fmt.Errorf("MsiViewExecute: error %d", ret)
	}

	var hRec uint32
	ret, _, _ = procMsiViewFetch.Call(uintptr(hView), uintptr(unsafe.Pointer(&hRec)))
	if ret != errorSuccess {
		// ERROR_NO_MORE_ITEMS: property not present
		return "", nil
	}
	defer closeHandle(hRec)

	return recordString(hRec, 1)
}

func recordString(hRec uint32, field uint32) (string, error) {
	size := uint32(256)
	for attempt := 0; attempt < 3; attempt++ {
		buf := make([]uint16, size)
		n := size
		ret, _, _ := procMsiRecordGetStringW.Call(
			uintptr(hRec),
			uintptr(field),
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&n)),
		)
		switch ret {
		case errorSuccess:
			return windows.UTF16ToString(buf[:n]), nil
		case errorMoreData:
			size = n + 1
		default:
			return "", fmt.Errorf("MsiRecordGetString: error %d", ret)
		}
	}
	return "", fmt.Errorf("MsiRecordGetString: value keeps growing")
}

func closeHandle(h uint32) {
	_, _, _ = procMsiCloseHandle.Call(uintptr(h))
}
