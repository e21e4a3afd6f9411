// Package config loads board presets and player settings.
//
// Presets are declared in CUE: the embedded default document carries
// both the schema and the three standard difficulties, and an optional
// user override file is unified against it, so invalid custom presets
// are rejected at load time rather than surfacing as impossible boards
// later. Settings are a flat key-value object with YAML round-tripping
// for the settings file.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/minesweep/internal/game"
)

//go:embed presets.cue
var defaultPresetsCUE string

// Preset is one board configuration as declared in CUE.
type Preset struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Mines int `json:"mines"`
}

// Validate rejects presets whose mine count cannot leave a full 3x3
// safe zone for the first action. The three standard difficulties all
// satisfy this with room to spare.
func (p Preset) Validate() error {
	if p.Rows < 1 || p.Cols < 1 {
		return fmt.Errorf("dimensions must be positive, got %dx%d", p.Rows, p.Cols)
	}
	if p.Mines < 1 {
		return fmt.Errorf("mine count must be positive, got %d", p.Mines)
	}
	if max := p.Rows*p.Cols - 9; p.Mines > max {
		return fmt.Errorf("%d mines on %dx%d leaves no safe zone (max %d)", p.Mines, p.Rows, p.Cols, max)
	}
	return nil
}

// LoadPresets compiles the embedded preset document, optionally unified
// with a user override in CUE syntax, and returns the validated preset
// map keyed by difficulty name.
func LoadPresets(override string) (map[game.Difficulty]game.Config, error) {
	ctx := cuecontext.New()

	v := ctx.CompileString(defaultPresetsCUE)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile default presets: %w", err)
	}

	if override != "" {
		o := ctx.CompileString(override)
		if err := o.Err(); err != nil {
			return nil, fmt.Errorf("compile preset override: %w", err)
		}
		v = v.Unify(o)
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("preset override conflicts with schema: %w", err)
		}
	}

	var doc struct {
		Presets map[string]Preset `json:"presets"`
	}
	if err := v.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	out := make(map[game.Difficulty]game.Config, len(doc.Presets))
	for name, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		out[game.Difficulty(name)] = game.Config{
			Difficulty: game.Difficulty(name),
			Rows:       p.Rows,
			Cols:       p.Cols,
			Mines:      p.Mines,
		}
	}
	return out, nil
}

// LoadPresetsFile loads presets with an override file; a missing path
// means defaults only.
func LoadPresetsFile(path string) (map[game.Difficulty]game.Config, error) {
	if path == "" {
		return LoadPresets("")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	return LoadPresets(string(raw))
}

// Settings is the flat persisted settings object.
type Settings struct {
	Sound          bool   `yaml:"sound" json:"sound"`
	Player         string `yaml:"player" json:"player"`
	LastDifficulty string `yaml:"last_difficulty" json:"last_difficulty"`
}

// DefaultSettings returns the first-run settings.
func DefaultSettings() Settings {
	return Settings{
		Sound:          true,
		LastDifficulty: string(game.Easy),
	}
}

// MarshalSettings renders settings as YAML for the settings file.
func MarshalSettings(s Settings) ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return out, nil
}

// UnmarshalSettings parses a YAML settings file, filling defaults for
// absent fields.
func UnmarshalSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
