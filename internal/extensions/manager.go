package extensions

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/dispatcher"
)

// Manager loads and unloads extensions on a dispatcher.
type Manager struct {
	mu         sync.Mutex
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
	exts       map[string]Extension
	order      []string
	loaded     map[string]bool
	// loadOrder lists loaded extensions, oldest first.
	loadOrder []string
}

// NewManager builds a manager bound to d.
func NewManager(d *dispatcher.Dispatcher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dispatcher: d,
		logger:     logger,
		exts:       make(map[string]Extension),
		loaded:     make(map[string]bool),
	}
}

// Add makes extensions known to the manager without loading them.
func (m *Manager) Add(exts ...Extension) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ext := range exts {
		name := ext.Name()
		if _, ok := m.exts[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateExtension, name)
		}
		m.exts[name] = ext
		m.order = append(m.order, name)
	}
	return nil
}

// Load runs the extension's Setup hook and registers its handlers.
func (m *Manager) Load(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, name)
}

func (m *Manager) load(ctx context.Context, name string) error {
	ext, ok := m.exts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}
	if m.loaded[name] {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, name)
	}

	if s, ok := ext.(Setupper); ok {
		if err := s.Setup(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", name, err)
		}
	}
	if err := m.dispatcher.Activate(ext); err != nil {
		if td, ok := ext.(Teardowner); ok {
			if tdErr := td.Teardown(ctx); tdErr != nil {
				m.logger.Warn("teardown after failed load", zap.String("extension", name), zap.Error(tdErr))
			}
		}
		return fmt.Errorf("load %s: %w", name, err)
	}

	m.loaded[name] = true
	m.loadOrder = append(m.loadOrder, name)
	m.logger.Info("extension loaded", zap.String("extension", name))
	return nil
}

// Unload removes the extension's handlers and runs its Teardown hook.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unload(ctx, name, false)
}

func (m *Manager) unload(ctx context.Context, name string, force bool) error {
	ext, ok := m.exts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExtensionNotFound, name)
	}
	if !m.loaded[name] {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	if ext.Metadata().NoUnload && !force {
		return fmt.Errorf("%w: %s", ErrNoUnload, name)
	}

	m.dispatcher.Deactivate(ext)
	delete(m.loaded, name)
	if idx := slices.Index(m.loadOrder, name); idx >= 0 {
		m.loadOrder = slices.Delete(m.loadOrder, idx, idx+1)
	}

	if td, ok := ext.(Teardowner); ok {
		if err := td.Teardown(ctx); err != nil {
			return fmt.Errorf("teardown %s: %w", name, err)
		}
	}
	m.logger.Info("extension unloaded", zap.String("extension", name))
	return nil
}

// Reload unloads and loads the extension again.
func (m *Manager) Reload(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.unload(ctx, name, false); err != nil {
		return err
	}
	return m.load(ctx, name)
}

// LoadEnabled loads every extension whose mode matches and that is not disabled.
// A failing extension is logged and the rest are still loaded; the combined error
// is returned.
func (m *Manager) LoadEnabled(ctx context.Context, mode Mode, disabled []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, name := range m.order {
		ext := m.exts[name]
		if ext.Metadata().loadIfMode()&mode == 0 {
			m.logger.Debug("extension skipped for mode",
				zap.String("extension", name),
				zap.Stringer("mode", mode))
			continue
		}
		if slices.Contains(disabled, name) {
			m.logger.Info("extension disabled by configuration", zap.String("extension", name))
			continue
		}
		if m.loaded[name] {
			continue
		}
		if err := m.load(ctx, name); err != nil {
			m.logger.Error("failed to load extension", zap.String("extension", name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// UnloadAll unloads every loaded extension in reverse load order, including those
// marked NoUnload. Failures are logged and do not stop the others.
func (m *Manager) UnloadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	loaded := slices.Clone(m.loadOrder)
	for i := len(loaded) - 1; i >= 0; i-- {
		name := loaded[i]
		if err := m.unload(ctx, name, true); err != nil {
			m.logger.Error("failed to unload extension", zap.String("extension", name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// IsLoaded reports whether name is loaded.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded[name]
}

// List returns the known extensions in the order they were added.
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.order))
	for _, name := range m.order {
		meta := m.exts[name].Metadata()
		out = append(out, Status{
			Name:       name,
			Loaded:     m.loaded[name],
			NoUnload:   meta.NoUnload,
			LoadIfMode: meta.loadIfMode().String(),
		})
	}
	return out
}
