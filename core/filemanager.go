package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"threatnav-go/threat"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileManager resolves and reads scenario files relative to a root directory.
type FileManager struct {
	rootDir string
}

// NewFileManager creates a new FileManager with the given root directory.
func NewFileManager(rootDir string) *FileManager {
	return &FileManager{rootDir: rootDir}
}

// GetPath returns the full path of a file. Absolute paths are returned unchanged.
func (fm *FileManager) GetPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fm.rootDir, path)
}

// PathExists returns true if the path exists, false otherwise.
func (fm *FileManager) PathExists(path string) bool {
	_, err := os.Stat(fm.GetPath(path))
	return !os.IsNotExist(err)
}

// ReadFile reads the contents of a file and returns the data.
func (fm *FileManager) ReadFile(path string) ([]byte, error) {
	if !fm.PathExists(path) {
		return nil, errors.Wrap(os.ErrNotExist, path)
	}
	return os.ReadFile(fm.GetPath(path))
}

// LoadJSONFile loads a JSON file and unmarshals it into the provided interface.
func (fm *FileManager) LoadJSONFile(path string, v interface{}) error {
	data, err := fm.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to decode JSON from %s", path)
	}
	return nil
}

// LoadYAMLFile loads a YAML file and unmarshals it into the provided interface.
func (fm *FileManager) LoadYAMLFile(path string, v interface{}) error {
	data, err := fm.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to decode YAML from %s", path)
	}
	return nil
}

// LoadThreats reads a list of dynamic threats. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func (fm *FileManager) LoadThreats(path string) ([]threat.GaussDynamicThreat, error) {
	var threats []threat.GaussDynamicThreat
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = fm.LoadYAMLFile(path, &threats)
	default:
		err = fm.LoadJSONFile(path, &threats)
	}
	if err != nil {
		return nil, err
	}
	return threats, nil
}
