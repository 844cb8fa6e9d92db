package model

import "testing"

func TestPresetRegistry(t *testing.T) {
	registry := NewPresetRegistry(BuiltinPresets())

	preset, ok := registry.Get(DefaultPresetName)
	if !ok {
		t.Fatalf("expected builtin preset %q to exist", DefaultPresetName)
	}
	if preset.VideoCodec != "libx264" {
		t.Errorf("expected libx264 codec, got %q", preset.VideoCodec)
	}

	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("expected lookup of unknown preset to fail")
	}

	if len(registry.Names()) != len(BuiltinPresets()) {
		t.Errorf("expected %d preset names, got %d", len(BuiltinPresets()), len(registry.Names()))
	}
}
