package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/inputgate/model/run"
	"github.com/viant/inputgate/service/dao"
)

// Service persists run records as JSON documents on any afs-supported
// storage scheme (file, mem, s3, gs, ...). One document per run.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, run.Record] = (*Service)(nil)

// New creates a filesystem-backed run-record DAO rooted at baseURL.
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	return &Service{basePath: baseURL, fs: afs.New()}, nil
}

// Save persists a run record.
func (s *Service) Save(ctx context.Context, record *run.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	location := s.recordPath(record.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save run record to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a run record by run id.
func (s *Service) Load(ctx context.Context, id string) (*run.Record, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check run record %s: %w", location, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read run record %s: %w", location, err)
	}
	record := &run.Record{}
	if err = json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record %s: %w", location, err)
	}
	return record, nil
}

// Delete removes a run record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check run record %s: %w", location, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	return s.fs.Delete(ctx, location)
}

// List returns all stored run records.
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*run.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	var ret []*run.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to read run record %s: %w", object.URL(), err)
		}
		record := &run.Record{}
		if err = json.Unmarshal(data, record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run record %s: %w", object.URL(), err)
		}
		ret = append(ret, record)
	}
	return ret, nil
}

func (s *Service) recordPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}
