// Package workspace owns the build directory: it stages a working copy of the
// original package, names the artifacts, and wipes the directory afterwards
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/types"
)

const (
	// RunFileName is the executable marker created in every build directory
	RunFileName = "run"

	runFileMode = 0744
	extraDir    = "extra"
)

// Workspace describes the staged build directory of one run
type Workspace struct {
	BuildDir        string
	OriginalApp     string
	UnsignedArchive string
	SignedArchive   string
	RunFile         string
}

// DexPath returns where the compiled unit for a smali directory is written
func (w *Workspace) DexPath(smaliDir string) string {
	return filepath.Join(w.BuildDir, filepath.Base(filepath.Clean(smaliDir))+".dex")
}

// ExtraRoot returns the directory extra files are staged under before being
// appended with their destination entry names
func (w *Workspace) ExtraRoot() string {
	return filepath.Join(w.BuildDir, extraDir)
}

// Manager stages and cleans workspaces
type Manager struct {
	logger logger.Logger
	fs     *FileSystemUtils
}

// NewManager creates a workspace manager
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		logger: log.WithStep("workspace"),
		fs:     NewFileSystemUtils(),
	}
}

// Resolve computes the workspace paths for cfg without touching the filesystem
func Resolve(cfg *types.BuildConfig) (*Workspace, error) {
	buildDir, err := filepath.Abs(cfg.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("resolve build dir: %w", err)
	}
	original, err := filepath.Abs(cfg.OriginalApp)
	if err != nil {
		return nil, fmt.Errorf("resolve original app: %w", err)
	}

	stem := cfg.Stem()
	return &Workspace{
		BuildDir:        buildDir,
		OriginalApp:     original,
		UnsignedArchive: filepath.Join(buildDir, stem+"-unsigned.apk"),
		SignedArchive:   filepath.Join(buildDir, stem+"-signed.apk"),
		RunFile:         filepath.Join(buildDir, RunFileName),
	}, nil
}

// CheckPaths verifies the path invariants of cfg. It only reads the filesystem.
func CheckPaths(cfg *types.BuildConfig) error {
	fs := NewFileSystemUtils()

	if fs.SamePath(cfg.BuildDir, cfg.SourceDir) {
		return fmt.Errorf("build directory and source directory must differ (%s): %w",
			cfg.BuildDir, types.ErrPathConflict)
	}
	if !fs.IsDirectory(cfg.SourceDir) {
		return fmt.Errorf("source dir %q: %w", cfg.SourceDir, types.ErrNotFound)
	}
	if !fs.IsRegularFile(cfg.OriginalApp) {
		return fmt.Errorf("original app %q: %w", cfg.OriginalApp, types.ErrNotFound)
	}
	return nil
}

// Stage prepares the build directory for cfg. Stale staged archives are
// removed and the unsigned archive is seeded with a byte-for-byte copy of the
// original package. Nothing is created when a path check fails.
func (m *Manager) Stage(cfg *types.BuildConfig) (*Workspace, error) {
	if err := CheckPaths(cfg); err != nil {
		return nil, err
	}

	ws, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if m.fs.SamePath(ws.OriginalApp, ws.UnsignedArchive) {
		return nil, fmt.Errorf("original app %s would be overwritten by the staged archive, choose another build dir: %w",
			ws.OriginalApp, types.ErrPathConflict)
	}

	if err := m.fs.CreateDirectory(ws.BuildDir); err != nil {
		return nil, fmt.Errorf("create build dir %s: %v: %w", ws.BuildDir, err, types.ErrIO)
	}
	if err := m.ensureRunFile(ws.RunFile); err != nil {
		return nil, err
	}

	for _, stale := range []string{ws.UnsignedArchive, ws.SignedArchive} {
		if err := os.Remove(stale); err == nil {
			m.logger.Debug("Removed stale archive", logger.WithField("path", stale))
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale archive %s: %v: %w", stale, err, types.ErrIO)
		}
	}

	if err := m.fs.CopyFile(ws.OriginalApp, ws.UnsignedArchive); err != nil {
		return nil, fmt.Errorf("stage %s: %v: %w", ws.OriginalApp, err, types.ErrIO)
	}

	m.logger.Info("Staged working copy", logger.WithField("archive", ws.UnsignedArchive))
	return ws, nil
}

func (m *Manager) ensureRunFile(path string) error {
	if m.fs.Exists(path) {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, runFileMode)
	if err != nil {
		return fmt.Errorf("create run file %s: %v: %w", path, err, types.ErrIO)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create run file %s: %v: %w", path, err, types.ErrIO)
	}
	// umask may have stripped bits
	if err := os.Chmod(path, runFileMode); err != nil {
		return fmt.Errorf("chmod run file %s: %v: %w", path, err, types.ErrIO)
	}
	return nil
}

// Clean deletes the build directory depth-first, files before directories.
// The first entry that cannot be removed aborts the clean.
func (m *Manager) Clean(ws *Workspace) error {
	if err := removeTree(ws.BuildDir); err != nil {
		return err
	}
	m.logger.Info("Cleaned build directory", logger.WithField("dir", ws.BuildDir))
	return nil
}

func removeTree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %v: %w", dir, err, types.ErrIO)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %v: %w", path, err, types.ErrIO)
		}
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := removeTree(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}

	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("remove %s: %v: %w", dir, err, types.ErrIO)
	}
	return nil
}
