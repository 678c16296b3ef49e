package tui

import (
	"slices"
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestParseBindingKeys verifies configured key strings map to matcher keys and help text.
func TestParseBindingKeys(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		fallback string
		wantKeys []string
		wantHelp string
	}{
		{name: "space word", raw: "Space", fallback: "/", wantKeys: []string{" ", "space"}, wantHelp: "space"},
		{name: "shifted letter", raw: "G", fallback: "v", wantKeys: []string{"G", "shift+g"}, wantHelp: "G"},
		{name: "plain rune", raw: "f", fallback: "/", wantKeys: []string{"f"}, wantHelp: "f"},
		{name: "chord lowercased", raw: "Ctrl+X", fallback: "ctrl+r", wantKeys: []string{"ctrl+x"}, wantHelp: "Ctrl+X"},
		{name: "blank falls back", raw: " \t", fallback: "ctrl+r", wantKeys: []string{"ctrl+r"}, wantHelp: "ctrl+r"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keys, help := parseBindingKeys(tc.raw, tc.fallback)
			if !slices.Equal(keys, tc.wantKeys) {
				t.Fatalf("parseBindingKeys(%q) keys = %#v, want %#v", tc.raw, keys, tc.wantKeys)
			}
			if help != tc.wantHelp {
				t.Fatalf("parseBindingKeys(%q) help = %q, want %q", tc.raw, help, tc.wantHelp)
			}
		})
	}
}

// TestKeyMapApplyConfigOverridesOnlyRebindableKeys verifies board overrides leave other keys alone.
func TestKeyMapApplyConfigOverridesOnlyRebindableKeys(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{Search: "f", Reset: "ctrl+x"})

	if got := k.search.Keys(); !slices.Equal(got, []string{"f"}) {
		t.Fatalf("search keys = %#v", got)
	}
	if k.search.Help().Desc != "search" {
		t.Fatalf("search help desc = %q", k.search.Help().Desc)
	}
	if got := k.reset.Keys(); !slices.Equal(got, []string{"ctrl+x"}) {
		t.Fatalf("reset keys = %#v", got)
	}
	if got := k.toggleView.Keys(); !slices.Equal(got, []string{"v"}) {
		t.Fatalf("toggle view should keep default, got %#v", got)
	}
	if got := k.priorityPicker.Keys(); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("priority picker changed unexpectedly: %#v", got)
	}
}

// TestKeyMapHelpListsPickers verifies every picker binding is reachable from help.
func TestKeyMapHelpListsPickers(t *testing.T) {
	k := newKeyMap()
	var full []key.Binding
	for _, group := range k.FullHelp() {
		full = append(full, group...)
	}
	for _, want := range []string{"priority", "status", "domain", "reset filters", "board/grid", "contributor"} {
		found := false
		for _, b := range full {
			if b.Help().Desc == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected %q in full help", want)
		}
	}
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
}
