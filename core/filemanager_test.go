package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManager(t *testing.T) {
	tmpDir := t.TempDir()
	fm := NewFileManager(tmpDir)

	assert.False(t, fm.PathExists("missing.json"))
	_, err := fm.ReadFile("missing.json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	abs := filepath.Join(tmpDir, "x.json")
	assert.Equal(t, abs, fm.GetPath(abs))
	assert.Equal(t, abs, fm.GetPath("x.json"))
}

func TestFileManager_LoadThreatsJSON(t *testing.T) {
	tmpDir := t.TempDir()
	content := `[
  {"location": {"x": 1, "y": 2}, "shape": {"x": 0.5, "y": 0.5}, "intensity": 3,
   "location_rate": {"x": 0.1, "y": 0}, "intensity_rate": -0.2},
  {"location": {"x": 5, "y": 5}, "shape": {"x": 1, "y": 2}, "intensity": 1}
]`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "threats.json"), []byte(content), 0644))

	threats, err := NewFileManager(tmpDir).LoadThreats("threats.json")
	require.NoError(t, err)
	require.Len(t, threats, 2)
	assert.Equal(t, 2.0, threats[0].Location.Y)
	assert.Equal(t, 0.1, threats[0].LocationRate.X)
	assert.Equal(t, -0.2, threats[0].IntensityRate)
	assert.Equal(t, 2.0, threats[1].Shape.Y)
}

func TestFileManager_LoadThreatsYAML(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
- location: {x: 3, y: 4}
  shape: {x: 1, y: 1}
  intensity: 2
  shape_rate: {x: 0.05, y: 0.05}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "threats.yml"), []byte(content), 0644))

	threats, err := NewFileManager(tmpDir).LoadThreats("threats.yml")
	require.NoError(t, err)
	require.Len(t, threats, 1)
	assert.Equal(t, 4.0, threats[0].Location.Y)
	assert.Equal(t, 0.05, threats[0].ShapeRate.X)
}

func TestFileManager_LoadThreatsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.json"), []byte("{"), 0644))

	_, err := NewFileManager(tmpDir).LoadThreats("bad.json")
	assert.Error(t, err)
}
