// Package input maps terminal keys to named script actions.
//
// A Bindings value is immutable once built; rebinding replaces the whole
// value, which the event pump posts into the thread context's bindings slot.
package input

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/key"

	"github.com/wippyai/wasm-player/errors"
)

// Actions handled by the event pump itself rather than the script.
const (
	ActionQuit   = "quit"
	ActionReload = "reload_bindings"
)

// Bindings maps action names to key bindings.
type Bindings struct {
	byAction map[string]key.Binding
	order    []string
	source   string
}

// file is the on-disk bindings format:
//
//	[actions.up]
//	keys = ["up", "k"]
//	help = "move up"
type file struct {
	Actions map[string]struct {
		Keys []string `toml:"keys"`
		Help string   `toml:"help"`
	} `toml:"actions"`
}

var defaults = []struct {
	action string
	keys   []string
	help   string
}{
	{"up", []string{"up", "k"}, "up"},
	{"down", []string{"down", "j"}, "down"},
	{"left", []string{"left", "h"}, "left"},
	{"right", []string{"right", "l"}, "right"},
	{"confirm", []string{"enter", " "}, "confirm"},
	{"cancel", []string{"esc", "x"}, "cancel"},
	{ActionReload, []string{"ctrl+r"}, "reload keys"},
	{ActionQuit, []string{"ctrl+c"}, "quit"},
}

// Default returns the built-in bindings.
func Default() *Bindings {
	b := &Bindings{byAction: make(map[string]key.Binding), source: "default"}
	for _, d := range defaults {
		b.set(d.action, d.keys, d.help)
	}
	return b
}

// LoadBindings reads a bindings file and layers it over the defaults.
// Actions listed with an empty key list are disabled.
func LoadBindings(path string) (*Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "bindings load failed ("+path+")")
	}

	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "bindings parse failed ("+path+")")
	}

	b := Default()
	b.source = path

	names := make([]string, 0, len(f.Actions))
	for name := range f.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := f.Actions[name]
		help := a.Help
		if help == "" {
			help = name
		}
		b.set(name, a.Keys, help)
	}

	if _, ok := b.byAction[ActionQuit]; !ok {
		return nil, errors.InvalidInput(errors.PhaseConfig, "bindings must keep a key for "+ActionQuit)
	}
	return b, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Bindings, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadBindings(path)
}

func (b *Bindings) set(action string, keys []string, help string) {
	if _, exists := b.byAction[action]; !exists {
		b.order = append(b.order, action)
	}
	if len(keys) == 0 {
		delete(b.byAction, action)
		for i, a := range b.order {
			if a == action {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
		return
	}
	b.byAction[action] = key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(keys[0], help),
	)
}

// Match returns the first action bound to k.
func (b *Bindings) Match(k string) (string, bool) {
	for _, action := range b.order {
		binding := b.byAction[action]
		for _, bk := range binding.Keys() {
			if bk == k {
				return action, true
			}
		}
	}
	return "", false
}

// Binding returns the key binding for action.
func (b *Bindings) Binding(action string) (key.Binding, bool) {
	kb, ok := b.byAction[action]
	return kb, ok
}

// Actions lists bound actions in declaration order.
func (b *Bindings) Actions() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// ShortHelp implements help.KeyMap for the status line.
func (b *Bindings) ShortHelp() []key.Binding {
	out := make([]key.Binding, 0, len(b.order))
	for _, action := range b.order {
		out = append(out, b.byAction[action])
	}
	return out
}

// FullHelp implements help.KeyMap.
func (b *Bindings) FullHelp() [][]key.Binding {
	return [][]key.Binding{b.ShortHelp()}
}

// Source names where the bindings were loaded from.
func (b *Bindings) Source() string {
	return b.source
}

// KeyEvent is the latest key press seen by the event pump.
type KeyEvent struct {
	Key    string
	Action string
	Seq    uint64
}
