// Package fixtures loads recorded lifecycle events from disk so that
// querylogctl replay can drive a listener the way a host would.
package fixtures

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"querylog/internal/codec"
	"querylog/internal/common/fsutil"
	"querylog/pkg/types"
)

// Fixture is one recorded lifecycle event to replay against a listener.
type Fixture struct {
	// Source file and 1-based record index within it.
	Source string
	Index  int
	Kind   types.EventKind
	Event  types.Event
}

// record is the on-disk shape of a fixture.
type record struct {
	Kind  string          `json:"kind"`
	Event json.RawMessage `json:"event"`
}

// LoadDir scans dir for event fixture files and returns their events in file
// name order, preserving record order within each file. Supported files:
// *.json (one record or an array), *.ndjson/*.jsonl (one record per line),
// *.yaml/*.yml (one record or a list). Other files are ignored.
func LoadDir(dir string) ([]Fixture, error) {
	abs, err := fsutil.Resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []Fixture
	for _, name := range names {
		fs, err := loadFile(filepath.Join(abs, name))
		if errors.Is(err, errUnsupported) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	return out, nil
}

var errUnsupported = errors.New("unsupported fixture file")

// LoadFile reads a single fixture file of any supported format.
func LoadFile(path string) ([]Fixture, error) {
	abs, err := fsutil.Resolve(path)
	if err != nil {
		return nil, err
	}
	return loadFile(abs)
}

func loadFile(p string) ([]Fixture, error) {
	name := filepath.Base(p)
	var (
		recs []record
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		recs, err = readJSON(p)
	case ".ndjson", ".jsonl":
		recs, err = readNDJSON(p)
	case ".yaml", ".yml":
		recs, err = readYAML(p)
	default:
		return nil, fmt.Errorf("%s: %w (%s)", name, errUnsupported, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make([]Fixture, 0, len(recs))
	for i, rec := range recs {
		f, err := rec.fixture(p, i+1)
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", name, i+1, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (r record) fixture(source string, idx int) (Fixture, error) {
	kind, err := types.ParseEventKind(r.Kind)
	if err != nil {
		return Fixture{}, err
	}
	ev, err := codec.DecodeEvent(kind, r.Event)
	if err != nil {
		return Fixture{}, err
	}
	return Fixture{Source: source, Index: idx, Kind: kind, Event: ev}, nil
}

func readJSON(p string) ([]record, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var recs []record
		if err := json.Unmarshal(b, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return []record{rec}, nil
}

func readNDJSON(p string) ([]record, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var recs []record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

// readYAML decodes YAML generically and re-encodes each record as JSON so the
// event types' JSON decoders (timestamps, ISO-8601 durations) apply unchanged.
func readYAML(p string) ([]record, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	var items []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	default:
		items = []any{v}
	}
	recs := make([]record, 0, len(items))
	for i, it := range items {
		j, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		var rec record
		if err := json.Unmarshal(j, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
