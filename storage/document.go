// Package storage provides mvdXML document storage using NATS KV.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/mvdkit/mvdxml"
	"github.com/c360studio/mvdkit/project"
)

// DefaultBucket is the KV bucket used when none is configured.
const DefaultBucket = "MVDXML_DOCUMENTS"

// KeyValue is the subset of jetstream.KeyValue the store uses.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// Document is a stored project with its KV metadata.
type Document struct {
	Project     *project.Project
	Diagnostics []mvdxml.Diagnostic
	Revision    uint64
	Created     time.Time
}

// Store provides document storage operations backed by NATS KV. Documents
// are keyed by the project UUID and stored as mvdXML.
type Store struct {
	kv     KeyValue
	logger *slog.Logger
	codec  []mvdxml.Option
}

// NewStore creates a new Store with the given JetStream context.
// It creates the bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger, opts ...mvdxml.Option) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}
	return NewKVStore(kv, logger, opts...), nil
}

// NewKVStore creates a Store over an existing bucket. The codec options are
// applied when documents are loaded and saved.
func NewKVStore(kv KeyValue, logger *slog.Logger, opts ...mvdxml.Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger, codec: append([]mvdxml.Option{mvdxml.WithLogger(logger)}, opts...)}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("mvdkit %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// Key returns the KV key of a project.
func Key(id uuid.UUID) string {
	return id.String()
}

// Save stores p and returns the new revision.
func (s *Store) Save(ctx context.Context, p *project.Project) (uint64, error) {
	data, err := s.encode(p)
	if err != nil {
		return 0, err
	}
	rev, err := s.kv.Put(ctx, Key(p.ID), data)
	if err != nil {
		return 0, fmt.Errorf("store document: %w", err)
	}
	s.logger.Debug("Stored document", slog.String("id", p.ID.String()), slog.Uint64("revision", rev))
	return rev, nil
}

// SaveRevision stores p only if the stored document is still at revision.
func (s *Store) SaveRevision(ctx context.Context, p *project.Project, revision uint64) (uint64, error) {
	data, err := s.encode(p)
	if err != nil {
		return 0, err
	}
	rev, err := s.kv.Update(ctx, Key(p.ID), data, revision)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return 0, fmt.Errorf("update document %s: %w", p.ID, ErrConflict)
		}
		return 0, fmt.Errorf("update document: %w", err)
	}
	return rev, nil
}

// PutRaw stores an encoded mvdXML document after checking it decodes. It
// returns the document's project UUID and the new revision.
func (s *Store) PutRaw(ctx context.Context, data []byte) (uuid.UUID, uint64, error) {
	res, err := mvdxml.Decode(bytes.NewReader(data), s.codec...)
	if err != nil {
		return uuid.Nil, 0, err
	}
	id := res.Project.ID
	rev, err := s.kv.Put(ctx, Key(id), data)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("store document: %w", err)
	}
	return id, rev, nil
}

// Load retrieves and decodes a document.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Document, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := mvdxml.Decode(bytes.NewReader(entry.Value()), s.codec...)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return &Document{
		Project:     res.Project,
		Diagnostics: res.Diagnostics,
		Revision:    entry.Revision(),
		Created:     entry.Created(),
	}, nil
}

// Raw retrieves the stored mvdXML bytes and revision of a document.
func (s *Store) Raw(ctx context.Context, id uuid.UUID) ([]byte, uint64, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return entry.Value(), entry.Revision(), nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns the UUIDs of all stored documents. Keys that are not UUIDs
// are skipped.
func (s *Store) List(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list document keys: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(key)
		if err != nil {
			s.logger.Warn("Skipping foreign key", slog.String("key", key))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) get(ctx context.Context, id uuid.UUID) (jetstream.KeyValueEntry, error) {
	entry, err := s.kv.Get(ctx, Key(id))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return entry, nil
}

func (s *Store) encode(p *project.Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := mvdxml.Encode(&buf, p, s.codec...); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return buf.Bytes(), nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}
