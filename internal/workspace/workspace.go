package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ErrFinished is returned when a Staging is used after Commit or Abort.
var ErrFinished = errors.New("staging directory already committed or aborted")

// Staging is an isolated output tree waiting to replace the live output.
type Staging struct {
	output string
	dir    string
}

// StagingDir returns the staging path used for output and id.
func StagingDir(output, id string) string {
	return filepath.Clean(output) + ".staging-" + id
}

// BackupDir returns the path the live output is moved to during Commit.
func BackupDir(output string) string {
	return filepath.Clean(output) + ".prev"
}

// Begin creates the staging directory for output.
func Begin(output, id string) (*Staging, error) {
	if output == "" || id == "" {
		return nil, fmt.Errorf("staging requires an output directory and an id")
	}
	dir := StagingDir(output, id)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear stale staging directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	slog.Debug("Initialized staging directory", slog.String("staging", dir), logfields.Output(output))
	return &Staging{output: filepath.Clean(output), dir: dir}, nil
}

// Path returns the staging directory, or "" once finished.
func (s *Staging) Path() string { return s.dir }

// Output returns the directory Commit promotes into.
func (s *Staging) Output() string { return s.output }

// resolve maps an output-relative slash path into the staging directory.
func (s *Staging) resolve(rel string) (string, error) {
	if s.dir == "" {
		return "", ErrFinished
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the output directory", rel)
	}
	return filepath.Join(s.dir, clean), nil
}

// WriteFile writes data at the output-relative path rel, creating parents.
func (s *Staging) WriteFile(rel string, data []byte) error {
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	// #nosec G306 -- site output is meant to be world readable
	return os.WriteFile(target, data, 0o644)
}

// CopyFile copies the file at src to the output-relative path rel.
func (s *Staging) CopyFile(rel, src string) error {
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	// #nosec G304 -- src comes from walking the configured content and static dirs
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302,G304 -- site output is meant to be world readable
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Commit promotes the staging directory to the output location:
//  1. Remove a leftover backup.
//  2. Move the existing output (if any) to the backup path.
//  3. Rename staging -> output, restoring the backup if that fails.
//  4. Remove the backup.
//
// Steps 2 and 3 are separate renames; between them the output path does not
// exist.
func (s *Staging) Commit() error {
	if s.dir == "" {
		return ErrFinished
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := BackupDir(s.output)
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}

	hadOutput := false
	if _, err := os.Stat(s.output); err == nil {
		if err := os.Rename(s.output, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
		hadOutput = true
	}
	if err := os.Rename(s.dir, s.output); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, s.output); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Output(s.output), logfields.Error(rerr))
			}
		}
		return fmt.Errorf("promote staging: %w", err)
	}
	s.dir = ""

	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Info("Promoted staging directory", logfields.Output(s.output))
	return nil
}

// Abort removes the staging directory. It is safe to call after Commit.
func (s *Staging) Abort() {
	if s.dir == "" {
		return
	}
	dir := s.dir
	s.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", slog.String("staging", dir))
}
