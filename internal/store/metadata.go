package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type PageRecord struct {
	PageNumber int    `json:"page_number"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	Hash       string `json:"hash"`
}

type Metadata struct {
	Volume          string       `json:"volume"`
	Issue           string       `json:"issue"`
	URL             string       `json:"url"`
	TotalPages      int          `json:"total_pages"`
	Pages           []PageRecord `json:"pages"`
	ScrapedAt       time.Time    `json:"scraped_at"`
	OutputDirectory string       `json:"output_directory"`
	StopReason      string       `json:"stop_reason,omitempty"`
}

// WriteMetadata replaces path atomically.
func WriteMetadata(path string, m Metadata) error {
	if m.Pages == nil {
		m.Pages = []PageRecord{}
	}

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metadata-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}

func ReadMetadata(path string) (Metadata, error) {
	var m Metadata

	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}

	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", path, err)
	}

	return m, nil
}
