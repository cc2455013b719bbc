package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mrold/sphinxgo/indexer"
)

// jsonLinesSource is a minimal file-backed DocumentSource: one JSON object
// per line, {"id": <docid>, "fields": [...], "attrs": {...}}, the standalone
// stand-in for the out-of-scope SQL/XML source adapters (§4.C), the same
// role the teacher's database/file.FileDatabase plays for the DDL
// comparison path — a file is the one "source" simple enough to need no
// external collaborator.
type jsonLinesSource struct {
	path     string
	killPath string
	f        *os.File
	scan     *bufio.Scanner
}

func newJSONLinesSource(path, killPath string) *jsonLinesSource {
	return &jsonLinesSource{path: path, killPath: killPath}
}

func (s *jsonLinesSource) Connect() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("indexer: open source %s: %w", s.path, err)
	}
	s.f = f
	s.scan = bufio.NewScanner(f)
	s.scan.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return nil
}

type jsonDoc struct {
	ID     uint64         `json:"id"`
	Fields []string       `json:"fields"`
	Attrs  map[string]any `json:"attrs"`
}

func (s *jsonLinesSource) Next() (indexer.Doc, bool, error) {
	for s.scan.Scan() {
		line := s.scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var jd jsonDoc
		if err := json.Unmarshal(line, &jd); err != nil {
			return indexer.Doc{}, false, fmt.Errorf("indexer: decode %s: %w", s.path, err)
		}
		return indexer.Doc{ID: jd.ID, Fields: jd.Fields, Attrs: jd.Attrs}, true, nil
	}
	if err := s.scan.Err(); err != nil {
		return indexer.Doc{}, false, err
	}
	_ = s.f.Close()
	return indexer.Doc{}, false, nil
}

func (s *jsonLinesSource) Kills() ([]uint64, error) {
	if s.killPath == "" {
		return nil, nil
	}
	f, err := os.Open(s.killPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("indexer: open killlist %s: %w", s.killPath, err)
	}
	defer f.Close()

	var ids []uint64
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		var id uint64
		if _, err := fmt.Sscanf(scan.Text(), "%d", &id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, scan.Err()
}
