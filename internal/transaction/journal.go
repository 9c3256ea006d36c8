// Package transaction records plan files written during a batch run so a
// failed run can put the output directory back the way it was.
package transaction

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// entry is the state of one path before the run touched it
type entry struct {
	path    string
	existed bool
	data    []byte
	mode    os.FileMode
}

// Journal snapshots output files before they are written
type Journal struct {
	fs      afero.Fs
	log     *zerolog.Logger
	mu      sync.Mutex
	entries []entry
	seen    map[string]bool
}

// NewJournal creates an empty journal over fs
func NewJournal(fs afero.Fs, log *zerolog.Logger) *Journal {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Journal{
		fs:   fs,
		log:  log,
		seen: make(map[string]bool),
	}
}

// Track snapshots path before it is written. Only the first snapshot of a
// path is kept.
func (j *Journal) Track(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.seen[path] {
		return nil
	}

	e := entry{path: path}
	info, err := j.fs.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return fmt.Errorf("track %s: is a directory", path)
		}
		data, err := afero.ReadFile(j.fs, path)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", path, err)
		}
		e.existed = true
		e.data = data
		e.mode = info.Mode().Perm()
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat %s: %w", path, err)
	}

	j.entries = append(j.entries, e)
	j.seen[path] = true
	return nil
}

// Len returns the number of tracked paths
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Rollback restores tracked paths in reverse order: files that existed get
// their previous content back, new files are removed
func (j *Journal) Rollback() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.entries) == 0 {
		return nil
	}

	j.log.Info().Int("files", len(j.entries)).Msg("rolling back plan files")

	var errs []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		var err error
		if e.existed {
			err = afero.WriteFile(j.fs, e.path, e.data, e.mode)
		} else {
			err = j.fs.Remove(e.path)
			if errors.Is(err, os.ErrNotExist) {
				err = nil
			}
		}
		if err != nil {
			j.log.Error().Err(err).Str("path", e.path).Msg("rollback failed")
			errs = append(errs, fmt.Errorf("restore %s: %w", e.path, err))
		}
	}

	j.entries = nil
	j.seen = make(map[string]bool)
	return errors.Join(errs...)
}

// Commit forgets every snapshot, keeping the written files
func (j *Journal) Commit() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
	j.seen = make(map[string]bool)
}
