// Package service registers the watcher with the host OS service manager
// (systemd user unit on Linux, launchd on macOS, Windows Service on
// Windows) so it starts at login and restarts on failure. Log output is
// captured by the service manager's journal.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kardianos/service"
)

// Name is the service identifier registered with the OS.
const Name = "gac-watcher"

// RunFunc runs the watcher until its context is cancelled.
type RunFunc func(ctx context.Context) error

// program adapts the watcher loop to the service lifecycle.
type program struct {
	run    RunFunc
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	// Start must not block; the watcher loop runs until Stop.
	go func() {
		defer close(p.done)
		if err := p.run(ctx); err != nil {
			_ = service.ConsoleLogger.Errorf("watcher exited: %v", err)
		}
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
		}
	}
	return nil
}

// Manager wraps the OS service for the gac watcher.
type Manager struct {
	svc service.Service
}

// New builds the service definition. The installed unit invokes
// `gac watch` with no further arguments.
func New(run RunFunc) (*Manager, error) {
	cfg := &service.Config{
		Name:        Name,
		DisplayName: "Git Auto Commit Watcher",
		Description: "Watches registered folders and automatically commits and pushes changes.",
		Arguments:   []string{"watch"},
		Option: service.KeyValue{
			"UserService": true,
			"Restart":     "always",
		},
	}

	svc, err := service.New(&program{run: run}, cfg)
	if err != nil {
		return nil, fmt.Errorf("create service definition: %w", err)
	}
	return &Manager{svc: svc}, nil
}

// Install registers the watcher with the service manager and starts it.
func (m *Manager) Install() error {
	if err := m.svc.Install(); err != nil {
		return fmt.Errorf("install %s: %w", Name, err)
	}
	if err := m.svc.Start(); err != nil {
		return fmt.Errorf("%s installed but failed to start: %w", Name, err)
	}
	return nil
}

// Uninstall stops the watcher and removes the service definition.
func (m *Manager) Uninstall() error {
	_ = m.svc.Stop()
	if err := m.svc.Uninstall(); err != nil {
		return fmt.Errorf("uninstall %s: %w", Name, err)
	}
	return nil
}

// Start starts the installed service.
func (m *Manager) Start() error {
	if err := m.svc.Start(); err != nil {
		return fmt.Errorf("start %s: %w", Name, err)
	}
	return nil
}

// Stop stops the installed service.
func (m *Manager) Stop() error {
	if err := m.svc.Stop(); err != nil {
		return fmt.Errorf("stop %s: %w", Name, err)
	}
	return nil
}

// Status returns a human-readable service state.
func (m *Manager) Status() (string, error) {
	status, err := m.svc.Status()
	if err != nil {
		return "", fmt.Errorf("status of %s: %w", Name, err)
	}
	switch status {
	case service.StatusRunning:
		return "running", nil
	case service.StatusStopped:
		return "stopped", nil
	default:
		return "unknown", nil
	}
}

// Run blocks and services lifecycle callbacks when the process is
// launched by the service manager itself.
func (m *Manager) Run() error {
	return m.svc.Run()
}

// Interactive reports whether the process was started from a terminal
// rather than by the service manager.
func Interactive() bool {
	return service.Interactive()
}
