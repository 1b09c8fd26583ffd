package competitors

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteSnapshot saves a run result as json, replacing whatever was at
// the path before. the snapshot is a flat file on purpose: the latest
// run is the only one that matters and history lives in the database.
func WriteSnapshot(path string, result RunResult) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	err = os.WriteFile(path, encoded, 0644)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func LoadSnapshot(path string) (RunResult, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return RunResult{}, err
	}
	var result RunResult
	err = json.Unmarshal(contents, &result)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return result, nil
}
