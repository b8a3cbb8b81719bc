// Package steps plans the packaging, signing and deployment work of a build
// onto a command queue. Nothing here runs external tools directly.
package steps

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
	"github.com/appbuilder/appbuilder/pkg/workspace"
)

// Packager appends compiled bytecode and extra files to the staged archive
type Packager struct {
	queue *queue.CommandQueue
	ws    *workspace.Workspace
	tools types.Tools
	fs    *workspace.FileSystemUtils
}

// NewPackager creates a packager for the staged workspace
func NewPackager(q *queue.CommandQueue, ws *workspace.Workspace, tools types.Tools) *Packager {
	return &Packager{
		queue: q,
		ws:    ws,
		tools: tools.WithDefaults(),
		fs:    workspace.NewFileSystemUtils(),
	}
}

// CompileAndPack plans, per smali directory and in the given order, a compile
// into <build-dir>/<dir-name>.dex followed by a store-mode append of that unit
func (p *Packager) CompileAndPack(smaliDirs []string) error {
	for _, dir := range smaliDirs {
		if !p.fs.IsDirectory(dir) {
			return fmt.Errorf("smali dir %q: %w", dir, types.ErrNotFound)
		}
		dex := p.ws.DexPath(dir)
		name := filepath.Base(filepath.Clean(dir))

		p.queue.Announce(fmt.Sprintf("smali %s -> %s", name, filepath.Base(dex)))
		p.queue.Enqueue("compile "+name, types.Command{
			Program: p.tools.Smali,
			Args:    []string{"a", dir, "-o", dex},
		})
		p.queue.Enqueue("append "+filepath.Base(dex), p.appendJunked(dex))
	}
	return nil
}

// AddExtraFiles plans, per file and in the given order, staging the source
// under its destination entry name and appending it in store mode
func (p *Packager) AddExtraFiles(files []types.ExtraFile) error {
	for _, f := range files {
		if err := f.CheckDest(); err != nil {
			return err
		}
		if !p.fs.IsRegularFile(f.Source) {
			return fmt.Errorf("extra file %q: %w", f.Source, types.ErrNotFound)
		}
		entry := f.EntryName()
		staged := filepath.Join(p.ws.ExtraRoot(), filepath.FromSlash(entry))
		src := f.Source

		p.queue.Announce(fmt.Sprintf("adding %s as %s...", src, entry))
		p.queue.EnqueueAction("stage "+entry, fmt.Sprintf("copy %s -> %s", src, staged),
			func(context.Context) error {
				if err := p.fs.CopyFile(src, staged); err != nil {
					return fmt.Errorf("stage %s: %v: %w", src, err, types.ErrIO)
				}
				return nil
			})
		p.queue.Enqueue("append "+entry, types.Command{
			Program: p.tools.Zip,
			Args:    []string{"-0", "-u", "-q", p.ws.UnsignedArchive, entry},
			Dir:     p.ws.ExtraRoot(),
		})
	}
	return nil
}

// appendJunked stores file at the archive root without recompressing or
// touching existing entries
func (p *Packager) appendJunked(file string) types.Command {
	return types.Command{
		Program: p.tools.Zip,
		Args:    []string{"-0", "-j", "-u", "-q", p.ws.UnsignedArchive, file},
	}
}
