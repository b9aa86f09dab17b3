package buildlog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"mcpreg/internal/domain"
)

const (
	buildsBucketName = "builds"
	metaBucketName   = "meta"
	schemaVersionKey = "schema_version"
	schemaVersion    = 1
)

var (
	ErrStoreClosed   = errors.New("build log store is closed")
	ErrMissingTool   = errors.New("tool name is required")
	ErrMissingBucket = errors.New("build log schema is missing")
)

// Store keeps build attempts in a bolt database, one bucket per tool,
// keyed by a per-bucket sequence so iteration order is append order.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("build log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure build log dir: %w", err)
	}
	options := &bolt.Options{Timeout: time.Second}
	base, err := bolt.Open(trimmed, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open build log db: %w", err)
	}
	if err := ensureSchema(base); err != nil {
		_ = base.Close()
		return nil, err
	}
	return &Store{db: base, path: trimmed}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Append stores record, assigning an ID when it has none.
func (s *Store) Append(record domain.BuildRecord) error {
	if strings.TrimSpace(record.Tool) == "" {
		return ErrMissingTool
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode build record: %w", err)
	}
	return s.update(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucketName))
		if builds == nil {
			return ErrMissingBucket
		}
		bucket, err := builds.CreateBucketIfNotExists([]byte(record.Tool))
		if err != nil {
			return fmt.Errorf("create tool bucket: %w", err)
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next build sequence: %w", err)
		}
		if err := bucket.Put(sequenceKey(seq), value); err != nil {
			return fmt.Errorf("write build record: %w", err)
		}
		return nil
	})
}

// List returns the newest records first. An empty tool lists every tool;
// limit <= 0 returns everything.
func (s *Store) List(tool string, limit int) ([]domain.BuildRecord, error) {
	var records []domain.BuildRecord
	err := s.view(func(tx *bolt.Tx) error {
		builds := tx.Bucket([]byte(buildsBucketName))
		if builds == nil {
			return ErrMissingBucket
		}
		if tool != "" {
			bucket := builds.Bucket([]byte(tool))
			if bucket == nil {
				return nil
			}
			var err error
			records, err = readNewest(bucket, limit)
			return err
		}
		return builds.ForEach(func(key, value []byte) error {
			if value != nil {
				return nil
			}
			bucket := builds.Bucket(key)
			if bucket == nil {
				return nil
			}
			items, err := readNewest(bucket, limit)
			if err != nil {
				return err
			}
			records = append(records, items...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if tool == "" {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].StartedAt.After(records[j].StartedAt)
		})
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
	}
	return records, nil
}

func (s *Store) Last(tool string) (domain.BuildRecord, bool, error) {
	if strings.TrimSpace(tool) == "" {
		return domain.BuildRecord{}, false, ErrMissingTool
	}
	records, err := s.List(tool, 1)
	if err != nil || len(records) == 0 {
		return domain.BuildRecord{}, false, err
	}
	return records[0], true, nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(buildsBucketName)); err != nil {
			return fmt.Errorf("create builds bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		current := meta.Get([]byte(schemaVersionKey))
		if len(current) == 8 {
			if version := binary.BigEndian.Uint64(current); version > schemaVersion {
				return fmt.Errorf("build log schema version %d is newer than supported %d", version, schemaVersion)
			}
			return nil
		}
		return meta.Put([]byte(schemaVersionKey), sequenceKey(schemaVersion))
	})
}

func readNewest(bucket *bolt.Bucket, limit int) ([]domain.BuildRecord, error) {
	var records []domain.BuildRecord
	cursor := bucket.Cursor()
	for key, value := cursor.Last(); key != nil; key, value = cursor.Prev() {
		if limit > 0 && len(records) >= limit {
			break
		}
		var record domain.BuildRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil, fmt.Errorf("decode build record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

var _ domain.BuildHistory = (*Store)(nil)
