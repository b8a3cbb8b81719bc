package engine

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"sync"

	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// ToolStatus is the lookup result for one external tool
type ToolStatus struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Err  error  `json:"-" yaml:"-"`
}

// Found reports whether the tool resolved to an executable
func (s ToolStatus) Found() bool {
	return s.Err == nil
}

// LookupFunc resolves a program name to a path
type LookupFunc func(name string) (string, error)

// CheckTools resolves every configured tool concurrently. Missing tools are
// reported in the statuses; the returned error wraps ErrNotFound when any is
// missing.
func CheckTools(ctx context.Context, tools types.Tools, log logger.Logger, lookup LookupFunc) ([]ToolStatus, error) {
	if lookup == nil {
		lookup = exec.LookPath
	}
	if log == nil {
		log = logger.Discard()
	}

	names := tools.WithDefaults().All()
	statuses := make([]ToolStatus, len(names))

	var mu sync.Mutex
	var missing []string

	g, ctx := NewSafeGroup(ctx, log)
	g.SetLimit(4)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := lookup(name)
			statuses[i] = ToolStatus{Name: name, Path: path, Err: err}
			if err != nil {
				log.Debug("Tool not found", logger.WithField("tool", name), logger.WithField("error", err))
				mu.Lock()
				missing = append(missing, name)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return statuses, err
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return statuses, fmt.Errorf("missing tools %v: %w", missing, types.ErrNotFound)
	}
	return statuses, nil
}
