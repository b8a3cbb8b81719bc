// Package process provides signal handling and scoped cleanup for a build run
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/appbuilder/appbuilder/pkg/logger"
)

// Manager turns OS interrupts into context cancellation and runs registered
// shutdown handlers
type Manager struct {
	logger           logger.Logger
	shutdownHandlers []func()
	cancel           context.CancelFunc
	sigChan          chan os.Signal
	done             chan struct{}
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
	shutdownOnce     sync.Once
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		logger: log,
	}
}

// RegisterShutdownHandler adds a handler run when an interrupt arrives.
// Handlers run in reverse registration order.
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// Start begins listening for SIGINT/SIGTERM/SIGHUP. The returned context is
// cancelled when a signal arrives, which stops the running external command.
func (m *Manager) Start(parent context.Context) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	if m.running {
		cancel()
		return parent
	}
	m.running = true
	m.cancel = cancel
	m.sigChan = make(chan os.Signal, 1)
	m.done = make(chan struct{})
	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		select {
		case sig := <-m.sigChan:
			m.logger.Warn("Received signal, aborting build", logger.WithField("signal", sig))
			cancel()
			m.handleShutdown()
		case <-m.done:
		}
	}()

	return ctx
}

// Stop stops listening for signals and releases the context
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	signal.Stop(m.sigChan)
	close(m.done)
	cancel := m.cancel
	m.mu.Unlock()

	m.wg.Wait()
	cancel()
}

// IsRunning checks if the process manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) handleShutdown() {
	m.shutdownOnce.Do(func() {
		m.mu.Lock()
		handlers := make([]func(), len(m.shutdownHandlers))
		copy(handlers, m.shutdownHandlers)
		m.mu.Unlock()

		for i := len(handlers) - 1; i >= 0; i-- {
			handlers[i]()
		}
	})
}
