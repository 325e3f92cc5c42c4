package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"arbScope/internal/model"
)

// AnomalyLog appends unclassifiable deposits to a JSONL file for manual follow-up.
type AnomalyLog struct {
	path string
	mu   sync.Mutex
}

func NewAnomalyLog(path string) *AnomalyLog {
	return &AnomalyLog{path: path}
}

// RecordAnomaly appends one anomaly as a JSON line.
func (s *AnomalyLog) RecordAnomaly(_ context.Context, anomaly model.Anomaly) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create anomaly dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open anomaly log: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(anomaly)
	if err != nil {
		return fmt.Errorf("marshal anomaly: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write anomaly: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush anomaly log: %w", err)
	}
	return nil
}
