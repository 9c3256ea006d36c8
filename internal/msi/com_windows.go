//go:build windows

package msi

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/rs/zerolog"
)

// COMReader reads properties through the WindowsInstaller.Installer
// automation object
type COMReader struct {
	log       *zerolog.Logger
	probeOnce sync.Once
	available bool
}

// NewCOMReader creates a COMReader
func NewCOMReader(log *zerolog.Logger) *COMReader {
	return &COMReader{log: log}
}

// Name implements PropertyReader
func (r *COMReader) Name() string { return KindCOM }

// Available implements PropertyReader. The installer object is created once
// to find out whether it is registered.
func (r *COMReader) Available() bool {
	r.probeOnce.Do(func() {
		r.available = withCOM(func() error {
			installer, err := oleutil.CreateObject("WindowsInstaller.Installer")
			if err != nil {
				return err
			}
			installer.Release()
			return nil
		}) == nil
	})
	return r.available
}

// ReadProperty implements PropertyReader
func (r *COMReader) ReadProperty(path, name string) (string, error) {
	if err := security.ValidatePropertyName(name); err != nil {
		return "", err
	}

	var value string
	err := withCOM(func() error {
		var err error
		value, err = readViaCOM(path, name)
		return err
	})
	if err != nil {
		if r.log != nil {
			r.log.Debug().
				Str("msi", path).
				Str("property", name).
				Str("error", oleErrorString(err)).
				Msg("COM property read failed")
		}
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", ErrPropertyNotFound
	}
	return value, nil
}

// withCOM runs fn on a locked OS thread with COM initialized
func withCOM(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		if oleErr, ok := err.(*ole.OleError); ok {
			code := oleErr.Code()
			if code != 0 && code != 1 { // S_OK=0, S_FALSE=1
				return fmt.Errorf("COM initialization failed: %s", oleErrorString(err))
			}
		}
	}
	defer ole.CoUninitialize()

	return fn()
}

func readViaCOM(path, name string) (string, error) {
	unknown, err := oleutil.CreateObject("WindowsInstaller.Installer")
	if err != nil {
		return "", fmt.Errorf("create installer object: %w", err)
	}
	defer unknown.Release()

	installer, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", fmt.Errorf("query installer interface: %w", err)
	}
	defer installer.Release()

	dbVariant, err := oleutil.CallMethod(installer, "OpenDatabase", path, 0)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	db := dbVariant.ToIDispatch()
	if db == nil {
		return "", fmt.Errorf("open database: no database object")
	}
	defer db.Release()

	query := fmt.Sprintf("SELECT `Value` FROM `Property` WHERE `Property`='%s'", name)
	viewVariant, err := oleutil.CallMethod(db, "OpenView", query)
	if err != nil {
		return "", fmt.Errorf("open view: %w", err)
	}
	view := viewVariant.ToIDispatch()
	if view == nil {
		return "", fmt.Errorf("open view: no view object")
	}
	defer view.Release()

	if _, err := oleutil.CallMethod(view, "Execute"); err != nil {
		return "", fmt.Errorf("execute view: %w", err)
	}
	defer func() { _, _ = oleutil.CallMethod(view, "Close") }()

	recVariant, err := oleutil.CallMethod(view, "Fetch")
	if err != nil {
		return "", fmt.Errorf("fetch record: %w", err)
	}
	rec := recVariant.ToIDispatch()
	if rec == nil {
		return "", nil
	}
	defer rec.Release()

	valueVariant, err := oleutil.GetProperty(rec, "StringData", 1)
	if err != nil {
		return "", fmt.Errorf("read record: %w", err)
	}
	defer func() { _ = valueVariant.Clear() }()

	return valueVariant.ToString(), nil
}

func oleErrorString(err error) string {
	if err == nil {
		return "unknown error"
	}
	if oleErr, ok := err.(*ole.OleError); ok {
		return fmt.Sprintf("%s (HRESULT: 0x%08X)", oleErr.Error(), uint32(oleErr.Code()))
	}
	return err.Error()
}
