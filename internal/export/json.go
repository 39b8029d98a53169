package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// Recommendations is the exported form of a recommendation list.
type Recommendations struct {
	ResumeID    string                  `json:"resumeId"`
	Filter      string                  `json:"filter,omitempty"`
	GeneratedAt string                  `json:"generatedAt"`
	Items       []smartrecruit.JobMatch `json:"items"`
}

// DumpToTmpFile writes the recommendations to a new temporary JSON file and returns its path.
func DumpToTmpFile(meta Meta, jobs []smartrecruit.JobMatch) (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close()

	if jobs == nil {
		jobs = []smartrecruit.JobMatch{}
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Recommendations{
		ResumeID:    meta.ResumeID,
		Filter:      meta.Filter,
		GeneratedAt: meta.generatedAt(),
		Items:       jobs,
	}); err != nil {
		return "", fmt.Errorf("encode recommendations: %w", err)
	}

	return file.Name(), nil
}
