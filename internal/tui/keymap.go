package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user overrides for rebindable keys. Blank fields keep defaults.
type KeyConfig struct {
	Search     string
	Reset      string
	ToggleView string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveLeft       key.Binding
	moveRight      key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	search         key.Binding
	reset          key.Binding
	toggleView     key.Binding
	priorityPicker key.Binding
	statusPicker   key.Binding
	domainPicker   key.Binding
	toggleOption   key.Binding
	pulse          key.Binding
	reviewers      key.Binding
	openDetails    key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "item up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "item down")),
		search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		reset:          key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset filters")),
		toggleView:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "board/grid")),
		priorityPicker: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "priority")),
		statusPicker:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "status")),
		domainPicker:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "domain")),
		toggleOption:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "toggle option")),
		pulse:          key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pulse log")),
		reviewers:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "reviewers")),
		openDetails:    key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "contributor")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.search, cfg.Search, "/", "search")
	configureBinding(&k.reset, cfg.Reset, "ctrl+r", "reset filters")
	configureBinding(&k.toggleView, cfg.ToggleView, "v", "board/grid")
}

// configureBinding replaces a binding's keys and help from one raw config value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys plus help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.search, k.priorityPicker, k.statusPicker, k.domainPicker, k.reset, k.toggleView, k.reviewers, k.pulse, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.priorityPicker, k.statusPicker, k.domainPicker, k.toggleOption, k.reset},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.toggleView},
		{k.reviewers, k.openDetails, k.pulse, k.reload, k.toggleHelp, k.quit},
	}
}
