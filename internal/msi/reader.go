// Package msi reads properties from the Property table of Windows Installer
// databases. Readers tell a property that is absent from the table
// (ErrPropertyNotFound) apart from a database they could not read.
package msi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/rs/zerolog"
)

// Standard property names read for every package
const (
	PropProductCode    = "ProductCode"
	PropUpgradeCode    = "UpgradeCode"
	PropProductVersion = "ProductVersion"
	PropManufacturer   = "Manufacturer"
	PropProductName    = "ProductName"
)

// StandardProperties lists the properties recorded in every MSI plan
var StandardProperties = []string{
	PropProductCode,
	PropUpgradeCode,
	PropProductVersion,
	PropManufacturer,
	PropProductName,
}

var (
	// ErrPropertyNotFound means the database was read and holds no value for
	// the property
	ErrPropertyNotFound = errors.New("property not found")

	// ErrReaderUnavailable is returned by readers that cannot run here
	ErrReaderUnavailable = errors.New("msi reader unavailable")
)

// Reader kinds accepted by NewReader
const (
	KindAuto       = "auto"
	KindDLL        = "msidll"
	KindCOM        = "com"
	KindPowerShell = "powershell"
	KindNone       = "none"
)

// PropertyReader looks up a single property of an MSI database
type PropertyReader interface {
	// Name identifies the reader in logs and diagnostics
	Name() string

	// Available reports whether the reader can work in this environment at all
	Available() bool

	// ReadProperty returns the property value. It returns ErrPropertyNotFound
	// when the database was read but the property is missing or blank, and
	// any other error when the database could not be read.
	ReadProperty(path, name string) (string, error)
}

// Unavailable is a reader for environments without MSI support
type Unavailable struct {
	Kind string
}

// Name implements PropertyReader
func (u Unavailable) Name() string {
	if u.Kind == "" {
		return KindNone
	}
	return u.Kind
}

// Available implements PropertyReader
func (Unavailable) Available() bool { return false }

// ReadProperty implements PropertyReader
func (Unavailable) ReadProperty(_, _ string) (string, error) { return "", ErrReaderUnavailable }

// Chain tries each available reader in order. The first reader that reads the
// database decides the result, including ErrPropertyNotFound.
type Chain struct {
	readers []PropertyReader
}

// NewChain creates a Chain over readers
func NewChain(readers ...PropertyReader) *Chain {
	return &Chain{readers: readers}
}

// Name implements PropertyReader
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.readers))
	for _, r := range c.readers {
		names = append(names, r.Name())
	}
	return strings.Join(names, "+")
}

// Available implements PropertyReader
func (c *Chain) Available() bool {
	for _, r := range c.readers {
		if r.Available() {
			return true
		}
	}
	return false
}

// ReadProperty implements PropertyReader
func (c *Chain) ReadProperty(path, name string) (string, error) {
	var errs []error
	for _, r := range c.readers {
		if !r.Available() {
			continue
		}
		v, err := r.ReadProperty(path, name)
		if err == nil || errors.Is(err, ErrPropertyNotFound) {
			return v, err
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	if len(errs) == 0 {
		return "", ErrReaderUnavailable
	}
	return "", errors.Join(errs...)
}

// Readers returns the chained readers
func (c *Chain) Readers() []PropertyReader {
	return c.readers
}

// NewReader builds the reader selected by kind
func NewReader(kind string, runner helpers.CommandRunner, log *zerolog.Logger) (PropertyReader, error) {
	native := platformReaders(log)
	ps := NewPowerShellReader(runner, log)

	nativeOr := func(k string) PropertyReader {
		if r, ok := native[k]; ok {
			return r
		}
		return Unavailable{Kind: k}
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindAuto, "":
		return NewChain(nativeOr(KindDLL), nativeOr(KindCOM), ps), nil
	case KindDLL:
		return nativeOr(KindDLL), nil
	case KindCOM:
		return nativeOr(KindCOM), nil
	case KindPowerShell:
		return ps, nil
	case KindNone:
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown msi reader %q (want auto, msidll, com, powershell or none)", kind)
	}
}
