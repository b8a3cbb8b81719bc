package steps

import (
	"fmt"

	"github.com/appbuilder/appbuilder/pkg/queue"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// Deployer plans installation of archives onto a device
type Deployer struct {
	queue *queue.CommandQueue
	tools types.Tools
}

// NewDeployer creates a deployer
func NewDeployer(q *queue.CommandQueue, tools types.Tools) *Deployer {
	return &Deployer{
		queue: q,
		tools: tools.WithDefaults(),
	}
}

// Install plans a single multi-package install of archives so split packages
// are installed together or not at all
func (d *Deployer) Install(target types.DeviceTarget, archives []string) error {
	if len(archives) == 0 {
		return fmt.Errorf("nothing to install: %w", types.ErrConfig)
	}

	args := append([]string{target.Flag(), "install-multiple", "-r"}, archives...)

	d.queue.Announce(fmt.Sprintf("installing %d archive(s) on %s...", len(archives), target))
	d.queue.Enqueue("install", types.Command{
		Program: d.tools.Adb,
		Args:    args,
	})
	return nil
}
