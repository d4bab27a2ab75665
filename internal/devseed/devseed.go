// Package devseed loads development seed files consumed by the mock backend
// and the sandbox command.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry describes one seeded file entry.
type Entry struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// LoadEntries reads a JSON array of seed entries from path.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: parse seed file: %w", err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("devseed: entry %d: name is required", i)
		}
		if strings.TrimSpace(e.Filename) == "" {
			return nil, fmt.Errorf("devseed: entry %d: filename is required", i)
		}
	}
	return entries, nil
}
