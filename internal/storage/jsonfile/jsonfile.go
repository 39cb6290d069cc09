// Package jsonfile writes and reads the collected restaurant dataset.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/menuscout/internal/models"
)

// SaveToJSON writes records to dataDir/filename as indented UTF-8 JSON and returns the path.
// Any previous file is replaced. Non-ASCII text is written literally.
func SaveToJSON(records []models.RestaurantRecord, dataDir, filename string) (string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	if records == nil {
		records = make([]models.RestaurantRecord, 0)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	path := filepath.Join(dataDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// LoadFromJSON reads a dataset previously written by SaveToJSON
func LoadFromJSON(path string) ([]models.RestaurantRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []models.RestaurantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return records, nil
}
