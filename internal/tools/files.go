package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned for a file name that resolves outside the base directory.
var ErrPathEscape = errors.New("path escapes base directory")

// ReadJSONFile reads name from baseDir and returns it re-indented with two
// spaces. Key order is preserved.
func ReadJSONFile(baseDir, name string) (string, error) {
	path, err := within(baseDir, name)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	return buf.String(), nil
}

func within(baseDir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("file name is required")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, name)
	}

	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}
	targetAbs := filepath.Join(baseAbs, name)

	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, name)
	}
	return targetAbs, nil
}
