package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/mocks"
	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// fakeRunner records commands and simulates the file effects of zipalign
// and apksigner
type fakeRunner struct {
	mu       sync.Mutex
	commands []types.Command
	failOn   string
}

func (r *fakeRunner) Run(_ context.Context, c types.Command, out io.Writer) (int, error) {
	r.mu.Lock()
	r.commands = append(r.commands, c)
	r.mu.Unlock()

	if c.Program == r.failOn {
		_, _ = io.WriteString(out, c.Program+": failed\n")
		return 1, nil
	}

	switch c.Program {
	case types.DefaultZipalign:
		src, dst := c.Args[len(c.Args)-2], c.Args[len(c.Args)-1]
		data, err := os.ReadFile(src)
		if err != nil {
			return 1, nil
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return 1, nil
		}
	case types.DefaultApksigner:
		for i, a := range c.Args {
			if a == "--out" {
				if err := os.WriteFile(c.Args[i+1], []byte("signed"), 0644); err != nil {
					return 1, nil
				}
			}
		}
	}
	return 0, nil
}

func (r *fakeRunner) programs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	for i, c := range r.commands {
		out[i] = c.Program
	}
	return out
}

type fixture struct {
	root     string
	cfg      *types.BuildConfig
	runner   *fakeRunner
	tempDir  string
	smaliDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	source := filepath.Join(root, "src")
	smali := filepath.Join(source, "foo")
	require.NoError(t, os.MkdirAll(smali, 0755))

	original := filepath.Join(root, "base.apk")
	require.NoError(t, os.WriteFile(original, []byte("original"), 0644))

	keystore := filepath.Join(root, "release.jks")
	require.NoError(t, os.WriteFile(keystore, []byte("ks"), 0600))

	return &fixture{
		root:     root,
		runner:   &fakeRunner{},
		tempDir:  t.TempDir(),
		smaliDir: smali,
		cfg: &types.BuildConfig{
			BuildDir:    filepath.Join(root, "build"),
			SourceDir:   source,
			OriginalApp: original,
			SmaliDirs:   []string{smali},
			Keystore:    &types.Credential{KeyPath: keystore, Passphrase: "secret"},
		},
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return New(f.cfg, logger.Discard(), Dependencies{
		Runner:  f.runner,
		TempDir: f.tempDir,
	})
}

func tempEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_CompileSignAndClean(t *testing.T) {
	f := newFixture(t)

	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"smali", "zip", "zipalign", "apksigner"}, f.runner.programs())
	assert.True(t, result.Signed)
	assert.False(t, result.Installed)
	assert.True(t, result.Cleaned)
	assert.True(t, strings.HasPrefix(result.RunID, "run_"))

	assert.NoDirExists(t, f.cfg.BuildDir)
	assert.Empty(t, tempEntries(t, f.tempDir))

	data, err := os.ReadFile(f.cfg.OriginalApp)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestRun_CommandShapes(t *testing.T) {
	f := newFixture(t)
	f.cfg.NoClean = true

	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)
	require.False(t, result.Cleaned)

	ws := result.Workspace
	cmds := f.runner.commands
	require.Len(t, cmds, 4)

	dex := filepath.Join(ws.BuildDir, "foo.dex")
	assert.Equal(t, []string{"a", f.smaliDir, "-o", dex}, cmds[0].Args)
	assert.Equal(t, []string{"-0", "-j", "-u", "-q", ws.UnsignedArchive, dex}, cmds[1].Args)

	aligned := cmds[2].Args[len(cmds[2].Args)-1]
	assert.Equal(t, []string{"-p", "-f", "4", ws.UnsignedArchive, aligned}, cmds[2].Args)
	assert.Equal(t, f.tempDir, filepath.Dir(aligned))

	assert.Equal(t, []string{"sign", "--ks", f.cfg.Keystore.KeyPath, "--ks-pass", "stdin", "--out", ws.SignedArchive, aligned}, cmds[3].Args)
	assert.Equal(t, "secret\n", cmds[3].Stdin)
	assert.NotContains(t, cmds[3].String(), "secret")

	assert.FileExists(t, ws.SignedArchive)
	assert.FileExists(t, ws.RunFile)
	assert.NoFileExists(t, aligned)
}

func TestRun_FailureAbortsAndKeepsBuildDir(t *testing.T) {
	f := newFixture(t)
	f.runner.failOn = "zip"

	_, err := f.orchestrator().Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExternalTool)

	var failure *queue.ToolFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 1, failure.ExitCode)

	assert.Equal(t, []string{"smali", "zip"}, f.runner.programs())
	assert.DirExists(t, f.cfg.BuildDir)
	assert.Empty(t, tempEntries(t, f.tempDir))
}

func TestRun_NoSignSkipsSigning(t *testing.T) {
	f := newFixture(t)
	f.cfg.NoSign = true
	f.cfg.Keystore = nil

	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"smali", "zip"}, f.runner.programs())
	assert.False(t, result.Signed)
}

func TestRun_NothingToDo(t *testing.T) {
	f := newFixture(t)
	f.cfg.NoSign = true
	f.cfg.SmaliDirs = nil
	f.cfg.NoClean = true

	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.runner.programs())
	assert.Equal(t, 0, result.Operations)
	data, err := os.ReadFile(result.Workspace.UnsignedArchive)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestRun_InstallOrder(t *testing.T) {
	f := newFixture(t)
	f.cfg.PreferEmulator = true
	f.cfg.NoClean = true

	lib := filepath.Join(f.root, "lib.apk")
	require.NoError(t, os.WriteFile(lib, []byte("lib"), 0644))
	f.cfg.AdditionalApps = []string{lib}

	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Installed)

	cmds := f.runner.commands
	last := cmds[len(cmds)-1]
	assert.Equal(t, "adb", last.Program)
	assert.Equal(t, []string{"-e", "install-multiple", "-r", lib, result.Workspace.SignedArchive}, last.Args)

	// not signed without sign-all
	data, err := os.ReadFile(lib)
	require.NoError(t, err)
	assert.Equal(t, "lib", string(data))
}

func TestRun_SignAllReplacesAdditionalApps(t *testing.T) {
	f := newFixture(t)
	f.cfg.SignAll = true
	f.cfg.SmaliDirs = nil

	lib := filepath.Join(f.root, "lib.apk")
	require.NoError(t, os.WriteFile(lib, []byte("lib"), 0644))
	f.cfg.AdditionalApps = []string{lib}

	_, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"zipalign", "apksigner", "zipalign", "apksigner"}, f.runner.programs())

	data, err := os.ReadFile(lib)
	require.NoError(t, err)
	assert.Equal(t, "signed", string(data))

	backup, err := os.ReadFile(lib + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "lib", string(backup))

	for _, name := range tempEntries(t, f.root) {
		assert.False(t, strings.HasSuffix(name, ".signing"), name)
	}
}

func TestRun_SignAllKeepsFirstBackup(t *testing.T) {
	f := newFixture(t)
	f.cfg.SignAll = true
	f.cfg.SmaliDirs = nil

	lib := filepath.Join(f.root, "lib.apk")
	require.NoError(t, os.WriteFile(lib, []byte("lib"), 0644))
	f.cfg.AdditionalApps = []string{lib}

	_, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)
	_, err = f.orchestrator().Run(context.Background())
	require.NoError(t, err)

	backup, err := os.ReadFile(lib + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "lib", string(backup))
}

func TestRun_RejectsBeforeStaging(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
		want   error
	}{
		{
			name:   "no sign with install",
			mutate: func(f *fixture) { f.cfg.NoSign = true; f.cfg.Install = true },
			want:   types.ErrConfig,
		},
		{
			name:   "missing original",
			mutate: func(f *fixture) { f.cfg.OriginalApp = filepath.Join(f.root, "missing.apk") },
			want:   types.ErrNotFound,
		},
		{
			name:   "build dir equals source dir",
			mutate: func(f *fixture) { f.cfg.BuildDir = f.cfg.SourceDir },
			want:   types.ErrPathConflict,
		},
		{
			name:   "missing keystore",
			mutate: func(f *fixture) { f.cfg.Keystore = nil },
			want:   types.ErrConfig,
		},
		{
			name:   "missing smali dir",
			mutate: func(f *fixture) { f.cfg.SmaliDirs = []string{filepath.Join(f.root, "nope")} },
			want:   types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f)

			_, err := f.orchestrator().Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.runner.programs())
			if tt.name != "build dir equals source dir" {
				assert.NoDirExists(t, f.cfg.BuildDir)
			}
		})
	}
}

func TestRun_Notifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		n := mocks.NewMockBuildNotifier(ctrl)
		gomock.InOrder(
			n.EXPECT().NotifyBuildStart("base"),
			n.EXPECT().NotifyBuildSuccess("base", gomock.Any()),
		)

		_, err := New(f.cfg, logger.Discard(), Dependencies{Runner: f.runner, Notifier: n, TempDir: f.tempDir}).
			Run(context.Background())
		require.NoError(t, err)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t)
		f.runner.failOn = "apksigner"
		n := mocks.NewMockBuildNotifier(ctrl)
		gomock.InOrder(
			n.EXPECT().NotifyBuildStart("base"),
			n.EXPECT().NotifyBuildFailure("base", gomock.Any()),
		)

		_, err := New(f.cfg, logger.Discard(), Dependencies{Runner: f.runner, Notifier: n, TempDir: f.tempDir}).
			Run(context.Background())
		assert.ErrorIs(t, err, types.ErrExternalTool)
	})
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orchestrator().Run(ctx)
	require.Error(t, err)
	assert.Empty(t, f.runner.programs())
	assert.Empty(t, tempEntries(t, f.tempDir))
}

func TestPlan_DoesNotStage(t *testing.T) {
	f := newFixture(t)
	f.cfg.Install = true

	entries, err := f.orchestrator().Plan(context.Background())
	require.NoError(t, err)

	var programs []string
	for _, e := range entries {
		if e.Kind == queue.KindCommand {
			programs = append(programs, e.Program)
		}
	}
	assert.Equal(t, []string{"smali", "zip", "zipalign", "apksigner", "adb"}, programs)
	assert.NoDirExists(t, f.cfg.BuildDir)
	assert.Empty(t, f.runner.programs())
	assert.Empty(t, tempEntries(t, f.tempDir))
}

func TestPlan_SignAllLeavesNoTemporaries(t *testing.T) {
	f := newFixture(t)
	f.cfg.SignAll = true

	appsDir := t.TempDir()
	lib := filepath.Join(appsDir, "lib.apk")
	require.NoError(t, os.WriteFile(lib, []byte("lib"), 0644))
	f.cfg.AdditionalApps = []string{lib}

	entries, err := f.orchestrator().Plan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	assert.Equal(t, []string{"lib.apk"}, tempEntries(t, appsDir))
	assert.Empty(t, tempEntries(t, f.tempDir))
}

func TestNew_DoesNotMutateConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.PreferEmulator = true

	o := f.orchestrator()
	assert.False(t, f.cfg.Install)
	assert.True(t, o.cfg.Install)
}

func TestResultDuration(t *testing.T) {
	f := newFixture(t)
	start := time.Now()
	result, err := f.orchestrator().Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Duration, time.Since(start))
}
