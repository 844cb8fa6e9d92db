package model

// Preset is a named, immutable bundle of transcoding parameters.
// Presets are defined at process start and looked up by name when a
// conversion job's argument vector is built.
type Preset struct {
	Name         string
	VideoCodec   string
	VideoPreset  string
	CRF          string
	AudioCodec   string
	AudioBitrate string
	ScaleHeight  int // 0 means keep source resolution
}

// Default preset values
const (
	DefaultPresetName = "standard"
)

// BuiltinPresets returns the process-wide conversion presets.
func BuiltinPresets() []Preset {
	return []Preset{
		{
			Name:         "standard",
			VideoCodec:   "libx264",
			VideoPreset:  "medium",
			CRF:          "23",
			AudioCodec:   "aac",
			AudioBitrate: "128k",
		},
		{
			Name:         "compact",
			VideoCodec:   "libx264",
			VideoPreset:  "slow",
			CRF:          "28",
			AudioCodec:   "aac",
			AudioBitrate: "96k",
			ScaleHeight:  720,
		},
		{
			Name:         "archive",
			VideoCodec:   "libx265",
			VideoPreset:  "medium",
			CRF:          "26",
			AudioCodec:   "aac",
			AudioBitrate: "128k",
		},
	}
}

// PresetRegistry resolves presets by name.
type PresetRegistry struct {
	presets map[string]Preset
}

// NewPresetRegistry creates a registry from the given presets.
func NewPresetRegistry(presets []Preset) *PresetRegistry {
	r := &PresetRegistry{presets: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		r.presets[p.Name] = p
	}
	return r
}

// Get returns the preset with the given name.
func (r *PresetRegistry) Get(name string) (Preset, bool) {
	p, ok := r.presets[name]
	return p, ok
}

// Names returns all registered preset names.
func (r *PresetRegistry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	return names
}
