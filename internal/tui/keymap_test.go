package tui

import (
	"slices"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func TestDefaultKeyMap_AllBindingsDefined(t *testing.T) {
	km := DefaultKeyMap()

	bindings := []struct {
		name    string
		binding key.Binding
	}{
		{"Quit", km.Quit},
		{"Increase", km.Increase},
		{"Decrease", km.Decrease},
	}

	for _, b := range bindings {
		t.Run(b.name, func(t *testing.T) {
			if !b.binding.Enabled() {
				t.Errorf("expected %s binding to be enabled", b.name)
			}
			if len(b.binding.Keys()) == 0 {
				t.Errorf("expected %s binding to have at least one key", b.name)
			}
			if b.binding.Help().Desc == "" {
				t.Errorf("expected %s binding to have help text", b.name)
			}
		})
	}
}

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		want    []string
	}{
		{"Quit", km.Quit, []string{"q", "ctrl+c"}},
		{"Increase", km.Increase, []string{"+"}},
		{"Decrease", km.Decrease, []string{"-"}},
	}
	for _, tt := range tests {
		for _, k := range tt.want {
			if !slices.Contains(tt.binding.Keys(), k) {
				t.Errorf("expected %s binding to include %q", tt.name, k)
			}
		}
	}

	if got := len(km.ShortHelp()); got != 3 {
		t.Errorf("ShortHelp() has %d bindings, want 3", got)
	}
}
