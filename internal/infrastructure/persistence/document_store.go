package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Domain names one JSON document in the data directory.
type Domain string

const (
	DomainUsers      Domain = "users"
	DomainHistory    Domain = "user_history"
	DomainBans       Domain = "banlist"
	DomainBroadcasts Domain = "broadcast"
	DomainMappings   Domain = "message_mappings"
)

var allDomains = []Domain{DomainUsers, DomainHistory, DomainBans, DomainBroadcasts, DomainMappings}

// DocumentStore keeps each domain as a whole-file JSON object keyed by
// string. Writes replace the file atomically; a missing or unreadable
// document reads as empty.
type DocumentStore struct {
	dir    string
	locks  map[Domain]*sync.RWMutex
	logger *zap.Logger
}

// NewDocumentStore 创建文档存储，目录不存在时自动创建
func NewDocumentStore(dir string, logger *zap.Logger) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	locks := make(map[Domain]*sync.RWMutex, len(allDomains))
	for _, d := range allDomains {
		locks[d] = &sync.RWMutex{}
	}

	return &DocumentStore{
		dir:    dir,
		locks:  locks,
		logger: logger.With(zap.String("component", "document-store")),
	}, nil
}

// Dir 返回数据目录
func (s *DocumentStore) Dir() string {
	return s.dir
}

// Path returns the file backing a domain.
func (s *DocumentStore) Path(d Domain) string {
	return filepath.Join(s.dir, string(d)+".json")
}

func (s *DocumentStore) lock(d Domain) *sync.RWMutex {
	l, ok := s.locks[d]
	if !ok {
		panic("persistence: unknown domain " + string(d))
	}
	return l
}

// load decodes the document into v and reports whether it did. Caller holds
// the domain lock.
func (s *DocumentStore) load(d Domain, v any) bool {
	data, err := os.ReadFile(s.Path(d))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read document, treating as empty",
				zap.String("domain", string(d)),
				zap.Error(err),
			)
		}
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("Corrupt document, treating as empty",
			zap.String("domain", string(d)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// save rewrites the whole document via temp file and rename. Caller holds
// the domain lock.
func (s *DocumentStore) save(d Domain, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", d, err)
	}

	tmp, err := os.CreateTemp(s.dir, string(d)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", d, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", d, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", d, err)
	}
	if err := os.Rename(tmpName, s.Path(d)); err != nil {
		return fmt.Errorf("replace %s: %w", d, err)
	}
	return nil
}

// readDoc returns a snapshot of a domain document. Never nil.
func readDoc[V any](s *DocumentStore, d Domain) map[string]V {
	l := s.lock(d)
	l.RLock()
	defer l.RUnlock()

	doc, _ := loadDoc[V](s, d)
	return doc
}

// loadDoc decodes each top-level value on its own. Values that do not
// decode as V are logged and returned in skipped so a later write can put
// them back unchanged.
func loadDoc[V any](s *DocumentStore, d Domain) (doc map[string]V, skipped map[string]json.RawMessage) {
	doc = make(map[string]V)
	var raw map[string]json.RawMessage
	if !s.load(d, &raw) {
		return doc, nil
	}
	for key, value := range raw {
		var v V
		if err := json.Unmarshal(value, &v); err != nil {
			s.logger.Warn("Skipping malformed document entry",
				zap.String("domain", string(d)),
				zap.String("key", key),
				zap.Error(err),
			)
			if skipped == nil {
				skipped = make(map[string]json.RawMessage)
			}
			skipped[key] = value
			continue
		}
		doc[key] = v
	}
	return doc, skipped
}

// updateDoc runs a read-modify-write cycle under the domain's write lock.
// fn reports whether it changed the document; unchanged documents are not
// rewritten. Entries fn never saw are written back as they were read.
func updateDoc[V any](s *DocumentStore, d Domain, fn func(doc map[string]V) (bool, error)) error {
	l := s.lock(d)
	l.Lock()
	defer l.Unlock()

	doc, skipped := loadDoc[V](s, d)
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	if len(skipped) == 0 {
		return s.save(d, doc)
	}

	out := make(map[string]any, len(doc)+len(skipped))
	for key, value := range skipped {
		out[key] = value
	}
	for key, value := range doc {
		out[key] = value
	}
	return s.save(d, out)
}

// lenientList decodes a JSON array and drops elements that do not decode
// as T, e.g. bare strings left in a history list.
type lenientList[T any] []T

// UnmarshalJSON 逐条解码，跳过无法解析的元素
func (l *lenientList[T]) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}
