package extensions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/discord-modmail/modmail/internal/dispatcher"
)

var (
	ErrDuplicateExtension = errors.New("extension already added")
	ErrExtensionNotFound  = errors.New("extension not found")
	ErrAlreadyLoaded      = errors.New("extension already loaded")
	ErrNotLoaded          = errors.New("extension not loaded")
	ErrNoUnload           = errors.New("extension cannot be unloaded")
	ErrInvalidMode        = errors.New("invalid bot mode")
)

// Mode is a set of bot run modes.
type Mode uint8

const (
	ModeProduction Mode = 1 << iota
	ModeDevelop
	ModePluginDev
)

var modeNames = []struct {
	mode Mode
	name string
}{
	{ModeProduction, "production"},
	{ModeDevelop, "develop"},
	{ModePluginDev, "plugin_dev"},
}

// ParseMode parses a comma separated list of mode names. An empty string is
// production.
func ParseMode(s string) (Mode, error) {
	var mode Mode
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		found := false
		for _, mn := range modeNames {
			if mn.name == part {
				mode |= mn.mode
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMode, part)
		}
	}
	if mode == 0 {
		mode = ModeProduction
	}
	return mode, nil
}

func (m Mode) String() string {
	var names []string
	for _, mn := range modeNames {
		if m&mn.mode != 0 {
			names = append(names, mn.name)
		}
	}
	return strings.Join(names, ",")
}

// Metadata controls when an extension is loaded and whether it may be unloaded.
type Metadata struct {
	// LoadIfMode is matched against the bot mode; zero means ModeProduction.
	LoadIfMode Mode
	NoUnload   bool
}

func (m Metadata) loadIfMode() Mode {
	if m.LoadIfMode == 0 {
		return ModeProduction
	}
	return m.LoadIfMode
}

// Extension is a named unit of handlers registered on load and removed on unload.
type Extension interface {
	dispatcher.Owner
	Name() string
	Metadata() Metadata
}

// Setupper is implemented by extensions that need work before their handlers are
// registered.
type Setupper interface {
	Setup(ctx context.Context) error
}

// Teardowner is implemented by extensions that release resources on unload.
type Teardowner interface {
	Teardown(ctx context.Context) error
}

// Status describes an extension for listings.
type Status struct {
	Name       string `json:"name"`
	Loaded     bool   `json:"loaded"`
	NoUnload   bool   `json:"no_unload"`
	LoadIfMode string `json:"load_if_mode"`
}
