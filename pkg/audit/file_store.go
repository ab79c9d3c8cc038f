package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// FileStore appends audit entries to newline-delimited JSON files. Each
// store instance writes to a single session file named by its creation
// time; Query reads across every session file in the directory.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	path string
	file *os.File
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens a session log file under dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}

	name := fmt.Sprintf("audit_log_%s.jsonl", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log file: %w", err)
	}

	return &FileStore{dir: dir, path: path, file: f}, nil
}

// Path returns the session log file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes one entry as a single JSON line and flushes it to disk.
func (s *FileStore) Append(_ context.Context, entry *model.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("audit log file is closed")
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return s.file.Sync()
}

// Query scans every session file in the log directory and returns the
// entries matching the filter, oldest first. Lines that fail to parse
// are skipped so a single corrupt record cannot hide the rest of the
// trail.
func (s *FileStore) Query(ctx context.Context, filter Filter) ([]model.AuditEntry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "audit_log_*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list audit log files: %w", err)
	}
	sort.Strings(paths)

	var matched []model.AuditEntry
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := readEntries(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if filter.Matches(&e) {
				matched = append(matched, e)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	return matched, nil
}

// Close flushes and closes the session file. The store cannot append
// after Close; Query still works.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func readEntries(path string) ([]model.AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()

	var entries []model.AuditEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.AuditEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log file: %w", err)
	}
	return entries, nil
}
