package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/process"
	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
	"github.com/appbuilder/appbuilder/pkg/workspace"
)

const alignment = "4"

// SigningJob is one align-then-sign of Source into Dest through an
// intermediate aligned file owned by the run scope
type SigningJob struct {
	Source  string
	Dest    string
	Aligned string
}

// Signer plans alignment and signing operations
type Signer struct {
	queue   *queue.CommandQueue
	tools   types.Tools
	cred    *types.Credential
	scope   *process.Scope
	tempDir string
	logger  logger.Logger
	fs      *workspace.FileSystemUtils
	dryRun  bool
}

// SignerOption configures a Signer
type SignerOption func(*Signer)

// WithTempDir sets where aligned intermediates are created (default os.TempDir)
func WithTempDir(dir string) SignerOption {
	return func(s *Signer) {
		s.tempDir = dir
	}
}

// WithSignerLogger sets the signer's logger
func WithSignerLogger(log logger.Logger) SignerOption {
	return func(s *Signer) {
		s.logger = log
	}
}

// WithDryRun makes the signer only compute temporary file names. Nothing is
// created on disk and nothing is registered with the scope.
func WithDryRun() SignerOption {
	return func(s *Signer) {
		s.dryRun = true
	}
}

// NewSigner creates a signer using cred. Temporary files are released when
// scope closes.
func NewSigner(q *queue.CommandQueue, tools types.Tools, cred *types.Credential, scope *process.Scope, opts ...SignerOption) *Signer {
	s := &Signer{
		queue:  q,
		tools:  tools.WithDefaults(),
		cred:   cred,
		scope:  scope,
		logger: logger.Discard(),
		fs:     workspace.NewFileSystemUtils(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithStep("sign")
	return s
}

// SignArchive plans aligning src into a fresh temporary file and signing that
// file into dest. src is never modified.
func (s *Signer) SignArchive(src, dest string) (*SigningJob, error) {
	if !s.cred.Present() {
		return nil, fmt.Errorf("signing %s requires a keystore: %w", src, types.ErrConfig)
	}

	aligned, err := s.createTemp(s.tempDir, stemOf(src)+"-*.aligned.apk")
	if err != nil {
		return nil, err
	}
	job := &SigningJob{Source: src, Dest: dest, Aligned: aligned}

	s.queue.Announce(fmt.Sprintf("zipalign %s...", filepath.Base(src)))
	s.queue.Enqueue("align "+filepath.Base(src), types.Command{
		Program: s.tools.Zipalign,
		Args:    []string{"-p", "-f", alignment, src, aligned},
	})

	args := []string{"sign", "--ks", s.cred.KeyPath}
	stdin := ""
	if s.cred.Passphrase != "" {
		args = append(args, "--ks-pass", "stdin")
		stdin = s.cred.Passphrase + "\n"
	}
	args = append(args, "--out", dest, aligned)

	s.queue.Announce(fmt.Sprintf("signing %s...", filepath.Base(src)))
	s.queue.Enqueue("sign "+filepath.Base(src), types.Command{
		Program: s.tools.Apksigner,
		Args:    args,
		Stdin:   stdin,
	})

	return job, nil
}

// SignMultiple plans in-place signing of each archive. Every archive is
// signed into a temporary sibling; once that succeeds the original is backed
// up as <path>.bak and the signed file is renamed over it, so a failed
// signing never leaves a truncated archive behind. An existing backup is
// never overwritten; it keeps the first pre-signing copy.
func (s *Signer) SignMultiple(paths []string) ([]*SigningJob, error) {
	jobs := make([]*SigningJob, 0, len(paths))
	for _, path := range paths {
		if !s.fs.IsRegularFile(path) {
			return nil, fmt.Errorf("archive %q: %w", path, types.ErrNotFound)
		}

		signed, err := s.createTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.signing")
		if err != nil {
			return nil, err
		}
		job, err := s.SignArchive(path, signed)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)

		target := path
		backup := path + ".bak"
		s.queue.EnqueueAction("replace "+filepath.Base(path),
			fmt.Sprintf("backup %s -> %s, rename %s -> %s", target, backup, signed, target),
			func(context.Context) error {
				if s.fs.Exists(backup) {
					s.logger.Debug("Keeping existing backup", logger.WithField("path", backup))
				} else if err := s.fs.CopyFile(target, backup); err != nil {
					return fmt.Errorf("backup %s: %v: %w", target, err, types.ErrIO)
				}
				if err := s.fs.ReplaceFile(signed, target); err != nil {
					return fmt.Errorf("%v: %w", err, types.ErrIO)
				}
				return nil
			})
	}
	return jobs, nil
}

// createTemp creates an empty, uniquely named file and registers its removal
// with the scope. The name embeds a UUID so repeated plans never collide.
// In dry-run mode only the name is returned.
func (s *Signer) createTemp(dir, pattern string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := strings.Replace(pattern, "*", uuid.New().String(), 1)
	path := filepath.Join(dir, name)
	if s.dryRun {
		return path, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create temporary file: %v: %w", err, types.ErrIO)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("create temporary file: %v: %w", err, types.ErrIO)
	}

	s.scope.Defer(func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove temporary file", logger.WithField("path", path))
			return err
		}
		return nil
	})
	return path, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
