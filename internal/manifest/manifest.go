// Package manifest reads and updates the project manifest (package.json).
//
// Only two fields matter to the release workflow: "name", which becomes the
// remote repository name, and "version", which seeds the branch planner.
// The manifest may contain comments or trailing commas, so parsing goes
// through github.com/tidwall/jsonc before encoding/json.
//
// Writing back is deliberately surgical: SetVersion replaces the bytes of the
// top-level "version" value and leaves every other byte of the file alone,
// so key order, indentation and comments survive a bump.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// DefaultFile is the manifest file name looked up in the project root.
const DefaultFile = "package.json"

// DefaultVersion is assumed when the manifest has no "version" field.
const DefaultVersion = "1.0.0"

// utf8BOM is stripped before parsing and restored on write.
var utf8BOM = []byte("\ufeff")

// Manifest is a loaded project manifest.
type Manifest struct {
	// Name is the project name from the "name" field.
	Name string

	// Version is the declared version, or DefaultVersion when absent.
	Version string

	path string
	raw  []byte
	bom  bool
}

// fields is the subset of package.json the workflow reads.
type fields struct {
	Name    string          `json:"name"`
	Version json.RawMessage `json:"version"`
}

// Load reads the manifest at dir/file. An empty file name means DefaultFile.
//
// A missing file, invalid JSON or an empty name are configuration errors
// (ExitConfigError); the workflow cannot name the remote repository without
// them.
func Load(dir, file string) (*Manifest, error) {
	if file == "" {
		file = DefaultFile
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	bom := bytes.HasPrefix(data, utf8BOM)
	data = bytes.TrimPrefix(data, utf8BOM)

	var f fields
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to parse manifest %s", path),
			err,
		)
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("manifest %s has no \"name\" field", path),
		)
	}

	version := DefaultVersion
	if len(f.Version) > 0 && string(f.Version) != "null" {
		var s string
		if err := json.Unmarshal(f.Version, &s); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("manifest %s: \"version\" must be a string", path),
				err,
			)
		}
		if s = strings.TrimSpace(s); s != "" {
			version = s
		}
	}

	return &Manifest{Name: name, Version: version, path: path, raw: data, bom: bom}, nil
}

// Path returns the file the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

// SetVersion writes version into the manifest file and updates m.Version.
// The existing value is replaced in place; when the field is missing it is
// appended as the last top-level key.
func (m *Manifest) SetVersion(version string) error {
	updated, err := replaceVersion(m.raw, version)
	if err != nil {
		return fmt.Errorf("failed to update version in %s: %w", m.path, err)
	}

	info, err := os.Stat(m.path)
	if err != nil {
		return fmt.Errorf("failed to stat manifest: %w", err)
	}
	content := updated
	if m.bom {
		content = append(append([]byte(nil), utf8BOM...), updated...)
	}
	if err := os.WriteFile(m.path, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	m.raw = updated
	m.Version = version
	return nil
}

// replaceVersion returns raw with the top-level "version" value set.
//
// jsonc.ToJSON blanks out comments and trailing commas without moving any
// byte, so offsets found in the cleaned copy are valid in raw as well.
func replaceVersion(raw []byte, version string) ([]byte, error) {
	clean := jsonc.ToJSON(raw)
	quoted := strconv.Quote(version)

	loc, err := scanTopLevel(clean, "version")
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	switch {
	case loc.found:
		if clean[loc.start] != '"' {
			return nil, errors.New(`"version" is not a string`)
		}
		out.Write(raw[:loc.start])
		out.WriteString(quoted)
		out.Write(raw[loc.end:])
	case loc.lastEnd < 0:
		// Empty object: rebuild it around the single key.
		out.Write(raw[:loc.open])
		fmt.Fprintf(&out, "{\n  \"version\": %s\n}", quoted)
		out.Write(raw[loc.close+1:])
	default:
		out.Write(raw[:loc.lastEnd])
		fmt.Fprintf(&out, ",\n%s\"version\": %s", loc.indent, quoted)
		out.Write(raw[loc.lastEnd:])
	}
	return out.Bytes(), nil
}

// location describes where a top-level key sits in a JSON object.
type location struct {
	found      bool
	start, end int // value span when found

	open, close int    // offsets of the outer braces
	lastEnd     int    // end of the last top-level value, -1 if none
	indent      string // whitespace in front of the first key
}

// scanTopLevel walks the tokens of a JSON object and records the byte span
// of the value under key.
func scanTopLevel(data []byte, key string) (location, error) {
	loc := location{lastEnd: -1, indent: "  "}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return loc, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return loc, errors.New("manifest is not a JSON object")
	}
	loc.open = int(dec.InputOffset()) - 1

	first := true
	for dec.More() {
		keyStart := skipSpace(data, int(dec.InputOffset()), ',')
		tok, err := dec.Token()
		if err != nil {
			return loc, err
		}
		name, _ := tok.(string)

		if first {
			loc.indent = leadingIndent(data[loc.open+1 : keyStart])
			first = false
		}

		valueStart := skipSpace(data, int(dec.InputOffset()), ':')
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return loc, err
		}
		valueEnd := int(dec.InputOffset())

		if name == key {
			loc.found = true
			loc.start, loc.end = valueStart, valueEnd
		}
		loc.lastEnd = valueEnd
	}

	if _, err := dec.Token(); err != nil {
		return loc, err
	}
	loc.close = int(dec.InputOffset()) - 1
	return loc, nil
}

// skipSpace advances past whitespace and at most one sep byte.
func skipSpace(data []byte, i int, sep byte) int {
	seen := false
	for i < len(data) {
		switch c := data[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == sep && !seen:
			seen = true
			i++
		default:
			return i
		}
	}
	return i
}

// leadingIndent returns the horizontal whitespace after the last newline in
// gap, falling back to two spaces for single-line objects.
func leadingIndent(gap []byte) string {
	nl := bytes.LastIndexByte(gap, '\n')
	if nl < 0 {
		return "  "
	}
	indent := strings.TrimRight(string(gap[nl+1:]), "\r")
	if strings.Trim(indent, " \t") != "" {
		return "  "
	}
	return indent
}
