package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lodeworks/lode/internal/fallback"
	"github.com/lodeworks/lode/internal/resource"
)

// Manifest is a decoded loader manifest.
type Manifest struct {
	Version    int             `yaml:"version"`
	Logging    *bool           `yaml:"logging,omitempty"`
	Retry      *RetryPolicy    `yaml:"retry,omitempty"`
	Chunks     []ChunkDecl     `yaml:"chunks,omitempty"`
	Components []ComponentDecl `yaml:"components,omitempty"`
}

// RetryPolicy mirrors the orchestrator's retry knobs. Nil fields keep
// the orchestrator defaults.
type RetryPolicy struct {
	MaxAttempts *int `yaml:"max_attempts,omitempty"`
	DelayMS     *int `yaml:"delay_ms,omitempty"`
}

// ChunkDecl declares one chunk and its optional fallback value.
type ChunkDecl struct {
	ID       string  `yaml:"id"`
	Fallback *string `yaml:"fallback,omitempty"`
}

// ComponentDecl declares one component: activation options and an
// optional fallback value.
type ComponentDecl struct {
	ID        string  `yaml:"id"`
	Immediate bool    `yaml:"immediate,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Fallback  *string `yaml:"fallback,omitempty"`
}

// Load reads, validates, and decodes the manifest at path. Validation
// errors are returned joined into a single error; use Validate directly
// for the full positioned list.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	if errs := Validate(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid manifest: %s", errs[0].Error())
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	for i := range m.Chunks {
		m.Chunks[i].ID = resource.NormalizeID(m.Chunks[i].ID)
	}
	for i := range m.Components {
		m.Components[i].ID = resource.NormalizeID(m.Components[i].ID)
	}

	return &m, nil
}

// ConfigPatch translates the manifest's orchestrator settings into a
// partial config update.
func (m *Manifest) ConfigPatch() fallback.ConfigPatch {
	patch := fallback.ConfigPatch{EnableLogging: m.Logging}
	if m.Retry != nil {
		patch.MaxRetryAttempts = m.Retry.MaxAttempts
		if m.Retry.DelayMS != nil {
			d := time.Duration(*m.Retry.DelayMS) * time.Millisecond
			patch.RetryDelay = &d
		}
	}
	return patch
}

// Apply pushes the manifest's fallback values and retry settings onto
// an orchestrator. The decode hook converts declared fallback strings
// into the orchestrator's value type; for string-valued orchestrators
// pass the identity function.
func Apply[T any](m *Manifest, orch *fallback.Orchestrator[T], decode func(raw string) (T, error)) error {
	orch.UpdateConfig(m.ConfigPatch())

	for _, c := range m.Chunks {
		if c.Fallback == nil {
			continue
		}
		v, err := decode(*c.Fallback)
		if err != nil {
			return fmt.Errorf("decode fallback for chunk %q: %w", c.ID, err)
		}
		orch.RegisterChunkFallback(c.ID, v)
	}

	for _, c := range m.Components {
		if c.Fallback == nil {
			continue
		}
		v, err := decode(*c.Fallback)
		if err != nil {
			return fmt.Errorf("decode fallback for component %q: %w", c.ID, err)
		}
		orch.RegisterComponentFallback(c.ID, v)
	}

	return nil
}
