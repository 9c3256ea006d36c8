package msi

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves properties from a map, or fails every read with err
type fakeReader struct {
	name      string
	available bool
	props     map[string]string
	err       error
	reads     int
}

func (f *fakeReader) Name() string    { return f.name }
func (f *fakeReader) Available() bool { return f.available }
func (f *fakeReader) ReadProperty(_, name string) (string, error) {
	f.reads++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.props[name]
	if !ok {
		return "", ErrPropertyNotFound
	}
	return v, nil
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{}
	assert.Equal(t, KindNone, u.Name())
	assert.False(t, u.Available())

	v, err := u.ReadProperty("x.msi", PropProductCode)
	assert.ErrorIs(t, err, ErrReaderUnavailable)
	assert.Empty(t, v)

	assert.Equal(t, KindCOM, Unavailable{Kind: KindCOM}.Name())
}

func TestChain_FirstReadableReaderWins(t *testing.T) {
	off := &fakeReader{name: "off", props: map[string]string{PropProductCode: "{OFF}"}}
	broken := &fakeReader{name: "broken", available: true, err: errors.New("open database failed")}
	full := &fakeReader{name: "full", available: true, props: map[string]string{PropProductCode: "{GUID}"}}

	chain := NewChain(off, broken, full)

	assert.Equal(t, "off+broken+full", chain.Name())
	assert.True(t, chain.Available())

	v, err := chain.ReadProperty("x.msi", PropProductCode)
	require.NoError(t, err)
	assert.Equal(t, "{GUID}", v)
	assert.Zero(t, off.reads, "unavailable readers are skipped")
	assert.Equal(t, 1, broken.reads)

	_, err = chain.ReadProperty("x.msi", PropUpgradeCode)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.Len(t, chain.Readers(), 3)
}

func TestChain_AbsentPropertyStopsChain(t *testing.T) {
	native := &fakeReader{name: "native", available: true, props: map[string]string{
		PropProductCode:    "{GUID}",
		PropProductVersion: "1.2.3",
		PropManufacturer:   "Contoso",
		PropProductName:    "Demo",
	}}
	runner := &helpers.MockCommandRunner{CommandExistsFunc: powershellOnly}
	ps := newTestPowerShellReader(runner)

	chain := NewChain(native, ps)
	for _, name := range StandardProperties {
		_, _ = chain.ReadProperty("x.msi", name)
	}

	assert.Equal(t, len(StandardProperties), native.reads)
	assert.Empty(t, runner.Calls, "a readable database never falls through to powershell")
}

func TestChain_FailedReadsFallThrough(t *testing.T) {
	native := &fakeReader{name: "native", available: true, err: errors.New("MsiOpenDatabase: error 110")}
	runner := &helpers.MockCommandRunner{
		CommandExistsFunc: powershellOnly,
		RunCommandFunc: func(_ context.Context, _ string, _ ...string) (string, error) {
			return `{"ProductCode":"{PS}"}`, nil
		},
	}

	chain := NewChain(native, newTestPowerShellReader(runner))

	v, err := chain.ReadProperty("x.msi", PropProductCode)
	require.NoError(t, err)
	assert.Equal(t, "{PS}", v)
	assert.Len(t, runner.Calls, 1)
}

func TestChain_AllReadersFail(t *testing.T) {
	chain := NewChain(
		&fakeReader{name: "a", available: true, err: errors.New("boom")},
		&fakeReader{name: "b", available: true, err: errors.New("bang")},
	)

	_, err := chain.ReadProperty("x.msi", PropProductCode)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPropertyNotFound)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Contains(t, err.Error(), "b: bang")
}

func TestChain_NothingAvailable(t *testing.T) {
	chain := NewChain(Unavailable{Kind: KindDLL}, Unavailable{Kind: KindCOM})
	assert.False(t, chain.Available())

	_, err := chain.ReadProperty("x.msi", PropProductName)
	assert.ErrorIs(t, err, ErrReaderUnavailable)
}

func TestNewReader_Kinds(t *testing.T) {
	log := zerolog.Nop()
	runner := &helpers.MockCommandRunner{}

	tests := []struct {
		kind     string
		wantName string
	}{
		{"auto", "msidll+com+powershell"},
		{"", "msidll+com+powershell"},
		{" AUTO ", "msidll+com+powershell"},
		{"msidll", KindDLL},
		{"com", KindCOM},
		{"powershell", KindPowerShell},
		{"none", KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			r, err := NewReader(tt.kind, runner, &log)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, r.Name())
		})
	}
}

func TestNewReader_UnknownKind(t *testing.T) {
	log := zerolog.Nop()
	_, err := NewReader("wine", &helpers.MockCommandRunner{}, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown msi reader")
}

func TestNewReader_NativeReadersUnavailableOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("native readers exist on Windows")
	}

	log := zerolog.Nop()
	for _, kind := range []string{KindDLL, KindCOM} {
		r, err := NewReader(kind, &helpers.MockCommandRunner{}, &log)
		require.NoError(t, err)
		assert.False(t, r.Available(), kind)
	}

	// auto has nothing to fall back on either: no powershell in the mock
	r, err := NewReader(KindAuto, &helpers.MockCommandRunner{}, &log)
	require.NoError(t, err)
	assert.False(t, r.Available())
}
