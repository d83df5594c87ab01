package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks missing or unusable configuration. It is raised
// before any network activity.
var ErrConfiguration = errors.New("configuration error")

var lineEnding = regexp.MustCompile(`\r?\n`)

// normalizeLineEndings rewrites every line break as CRLF, the format the
// documents have always been stored in.
func normalizeLineEndings(data []byte) []byte {
	return lineEnding.ReplaceAll(data, []byte("\r\n"))
}

// readDocument decodes a YAML document. A missing file is a configuration
// error because both documents are operator-provided.
func readDocument(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: missing %s", ErrConfiguration, path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfiguration, filepath.Base(path), err)
	}
	return nil
}

// writeDocument replaces the whole file with the encoded document.
func writeDocument(path string, doc interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	// Write with restrictive permissions (owner read/write only)
	return os.WriteFile(path, normalizeLineEndings(buf.Bytes()), 0600)
}
