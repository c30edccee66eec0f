package legacyimport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const keyPrefix = "note-"

var ErrInvalidExport = errors.New("legacyimport: invalid export")

// localStorage 時代のノートの形
type legacyNote struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Timestamp string `json:"timestamp"`
}

// Record は取り込み対象の1件。Key はそのままノートの id になる
type Record struct {
	Key       string
	Title     string
	Content   string
	Latitude  float64
	Longitude float64
	Timestamp string
}

type Skipped struct {
	Key    string
	Reason string
}

type Result struct {
	Records []Record
	Skipped []Skipped
}

// Load はエクスポートファイルを読み込み、snapshotDir が空でなければ元ファイルの控えを残す
func Load(path string, snapshotDir string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy export: %w", err)
	}
	result, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if snapshotDir != "" {
		if err := saveSnapshot(snapshotDir, data); err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
	}
	return result, nil
}

// Parse は "note-*" キーからノートへの JSON オブジェクトを解釈する
// 値はオブジェクトでも、localStorage と同じく JSON 文字列でもよい
// キーの辞書順で返し、"note-" で始まらないキーは無視する
func Parse(data []byte) (*Result, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		if strings.HasPrefix(key, keyPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	result := &Result{Records: make([]Record, 0, len(keys))}
	for _, key := range keys {
		record, reason := decode(key, entries[key])
		if reason != "" {
			result.Skipped = append(result.Skipped, Skipped{Key: key, Reason: reason})
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func decode(key string, raw json.RawMessage) (Record, string) {
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return Record{}, "invalid key"
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return Record{}, "malformed value"
		}
		raw = json.RawMessage(encoded)
	}

	var note legacyNote
	if err := json.Unmarshal(raw, &note); err != nil {
		return Record{}, "malformed value"
	}

	title := strings.TrimSpace(note.Title)
	content := strings.TrimSpace(note.Content)
	if title == "" || content == "" {
		return Record{}, "missing title or content"
	}
	if note.Location == nil {
		return Record{}, "missing location"
	}

	return Record{
		Key:       key,
		Title:     title,
		Content:   content,
		Latitude:  note.Location.Latitude,
		Longitude: note.Location.Longitude,
		Timestamp: note.Timestamp,
	}, ""
}
