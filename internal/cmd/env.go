package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taskclaim/taskclaim/internal/audit"
	"github.com/taskclaim/taskclaim/internal/config"
	"github.com/taskclaim/taskclaim/internal/lifecycle"
	"github.com/taskclaim/taskclaim/internal/logging"
	"github.com/taskclaim/taskclaim/internal/registry"
	"github.com/taskclaim/taskclaim/internal/task"
	"github.com/taskclaim/taskclaim/internal/txn"
)

// env wires the configured stores, manager, and audit trail for one
// command invocation.
type env struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *registry.Store
	tasks    *task.Store
	manager  *lifecycle.Manager
}

// newEnv builds the invocation environment from the loaded configuration.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.NewLogger(cfg.DataDir, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	bus := audit.NewBus()
	audit.Attach(bus, audit.NewFileSink(filepath.Join(cfg.DataDir, audit.LogFileName)))

	writer := txn.NewWriter(txn.JSONValidator{}, txn.NewFileBackupKeeper(cfg.Backup.Retention), log)
	writer.SetHooks(txn.Hooks{
		BackupCreated: func(path string) {
			bus.Publish(audit.NewBackupCreatedEvent(path))
		},
		RestorePerformed: func(path, reason string) {
			bus.Publish(audit.NewRestorePerformedEvent(path, reason))
		},
	})
	reg := registry.NewStore(filepath.Join(cfg.DataDir, registry.FileName), writer, log)
	tasks := task.NewStore(filepath.Join(cfg.DataDir, task.FileName), writer, log)

	return &env{
		cfg:      cfg,
		log:      log,
		registry: reg,
		tasks:    tasks,
		manager:  lifecycle.NewManager(reg, tasks, cfg, bus, log),
	}, nil
}

func (e *env) close() {
	_ = e.log.Close()
}

// requireInit fails with a hint when the documents have not been created.
func (e *env) requireInit() error {
	if !e.tasks.Exists() || !e.registry.Exists() {
		return fmt.Errorf("no task store found in %s (run 'taskclaim init' first)", e.cfg.DataDir)
	}
	return nil
}

// resolveSessionID expands a session ID or unique prefix to a full live
// session ID.
func (e *env) resolveSessionID(arg string) (string, error) {
	doc, err := e.registry.Load()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, s := range doc.Sessions {
		if s.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(s.ID, arg) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("session not found: %s", arg)
	default:
		return "", fmt.Errorf("session prefix %s is ambiguous (%s)", arg, strings.Join(matches, ", "))
	}
}
