package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/lode/internal/fallback"
	"github.com/lodeworks/lode/internal/loader"
	"github.com/lodeworks/lode/internal/resource"
	"github.com/lodeworks/lode/internal/testutil"
)

const validManifest = `
version: 1
logging: true
retry:
  max_attempts: 5
  delay_ms: 250
chunks:
  - id: chunk-a
    fallback: "<widget/>"
  - id: chunk-b
components:
  - id: hero
    immediate: true
    fallback: "<placeholder/>"
  - id: below-fold
    threshold: 0.25
`

func TestValidate_AcceptsWellFormedManifest(t *testing.T) {
	errs := Validate([]byte(validManifest))
	assert.Empty(t, errs)
}

func TestValidate_RejectsWrongVersion(t *testing.T) {
	errs := Validate([]byte("version: 2\n"))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchema, errs[0].Code)
}

func TestValidate_RejectsThresholdOutOfRange(t *testing.T) {
	doc := `
version: 1
components:
  - id: hero
    threshold: 1.5
`
	errs := Validate([]byte(doc))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchema, errs[0].Code)
}

func TestValidate_RejectsEmptyID(t *testing.T) {
	doc := `
version: 1
chunks:
  - id: ""
`
	errs := Validate([]byte(doc))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchema, errs[0].Code)
}

func TestValidate_RejectsDuplicateIDs(t *testing.T) {
	doc := `
version: 1
chunks:
  - id: chunk-a
  - id: chunk-a
components:
  - id: hero
  - id: hero
`
	errs := Validate([]byte(doc))
	require.Len(t, errs, 2)
	assert.Equal(t, ErrDuplicateID, errs[0].Code)
	assert.Equal(t, "chunks", errs[0].Field)
	assert.Equal(t, ErrDuplicateID, errs[1].Code)
	assert.Equal(t, "components", errs[1].Field)
}

func TestValidate_RejectsNonYAML(t *testing.T) {
	errs := Validate([]byte("{version: 1, chunks: ["))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSyntax, errs[0].Code)
}

func TestValidate_RejectsUnknownField(t *testing.T) {
	errs := Validate([]byte("version: 1\nbudget: 12\n"))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchema, errs[0].Code)
}

func TestParse_DecodesAndNormalizes(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Version)
	require.NotNil(t, m.Logging)
	assert.True(t, *m.Logging)

	require.Len(t, m.Chunks, 2)
	assert.Equal(t, "chunk-a", m.Chunks[0].ID)
	require.NotNil(t, m.Chunks[0].Fallback)
	assert.Equal(t, "<widget/>", *m.Chunks[0].Fallback)
	assert.Nil(t, m.Chunks[1].Fallback)

	require.Len(t, m.Components, 2)
	assert.True(t, m.Components[0].Immediate)
	assert.Equal(t, 0.25, m.Components[1].Threshold)
}

func TestParse_NormalizesIDsToNFC(t *testing.T) {
	// "cafe" plus a combining acute accent (e + U+0301) folds to the
	// precomposed form.
	decomposed := "cafe\u0301"
	doc := "version: 1\nchunks:\n  - id: \"" + decomposed + "\"\n"
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, m.Chunks, 1)
	assert.Equal(t, "caf\u00e9", m.Chunks[0].ID)
	assert.NotEqual(t, decomposed, m.Chunks[0].ID)
}

func TestParse_RejectsInvalidManifest(t *testing.T) {
	_, err := Parse([]byte("version: 9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid manifest")
}

func TestLoad_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Version)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigPatch_TranslatesRetrySettings(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	patch := m.ConfigPatch()
	require.NotNil(t, patch.MaxRetryAttempts)
	assert.Equal(t, 5, *patch.MaxRetryAttempts)
	require.NotNil(t, patch.RetryDelay)
	assert.Equal(t, 250*time.Millisecond, *patch.RetryDelay)
	require.NotNil(t, patch.EnableLogging)
	assert.True(t, *patch.EnableLogging)
}

func TestConfigPatch_EmptyManifestLeavesDefaults(t *testing.T) {
	m, err := Parse([]byte("version: 1\n"))
	require.NoError(t, err)

	patch := m.ConfigPatch()
	assert.Nil(t, patch.MaxRetryAttempts)
	assert.Nil(t, patch.RetryDelay)
	assert.Nil(t, patch.EnableLogging)
}

func TestApply_RegistersFallbacksAndConfig(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	r := testutil.NewFlakyResolver(0, nil, "v")
	orch := fallback.New(loader.NewChunk(r.Resolve), loader.NewComponent[string]())

	identity := func(raw string) (string, error) { return raw, nil }
	require.NoError(t, Apply(m, orch, identity))

	assert.True(t, orch.HasFallback(resource.KindChunk, "chunk-a"))
	assert.False(t, orch.HasFallback(resource.KindChunk, "chunk-b"), "no fallback declared")
	assert.True(t, orch.HasFallback(resource.KindComponent, "hero"))
	assert.Equal(t, 5, orch.Config().MaxRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, orch.Config().RetryDelay)
}

func TestApply_SubstitutesDeclaredFallback(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	cause := errors.New("down")
	r := testutil.NewFlakyResolver(99, cause, "")
	cfg := fallback.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	orch := fallback.New(loader.NewChunk(r.Resolve), loader.NewComponent[string](),
		fallback.WithConfig[string](cfg))

	require.NoError(t, Apply(m, orch, func(raw string) (string, error) { return raw, nil }))

	v, err := orch.LoadChunk(context.Background(), "chunk-a")
	require.NoError(t, err)
	assert.Equal(t, "<widget/>", v)
}

func TestApply_PropagatesDecodeFailure(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	r := testutil.NewFlakyResolver(0, nil, 0)
	orch := fallback.New(loader.NewChunk(r.Resolve), loader.NewComponent[int]())

	decodeErr := errors.New("not an int")
	err = Apply(m, orch, func(string) (int, error) { return 0, decodeErr })
	require.ErrorIs(t, err, decodeErr)
	assert.Contains(t, err.Error(), "chunk-a")
}
