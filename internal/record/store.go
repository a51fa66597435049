package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when no record exists at the location.
var ErrNotFound = errors.New("cluster record not found")

// Store persists a single cluster record.
type Store interface {
	// Load reads the record. Returns ErrNotFound when none exists.
	Load(ctx context.Context) (*ClusterRecord, error)
	// Save replaces the stored record.
	Save(ctx context.Context, rec *ClusterRecord) error
	// Retire removes the record after a successful teardown.
	Retire(ctx context.Context) error
	// Location describes where the record lives.
	Location() string
}

// FileStore keeps the record in a local file.
type FileStore struct {
	path   string
	format Format
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, format: FormatFor(path)}
}

// Location returns the file path.
func (s *FileStore) Location() string {
	return s.path
}

// Load reads the record file.
func (s *FileStore) Load(_ context.Context) (*ClusterRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read cluster record: %w", err)
	}
	return Decode(data, s.format)
}

// Save writes the record atomically with owner-only permissions.
func (s *FileStore) Save(_ context.Context, rec *ClusterRecord) error {
	data, err := Encode(rec, s.format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary record: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write cluster record: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to set record permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close cluster record: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace cluster record: %w", err)
	}
	return nil
}

// Retire deletes the record file. A missing file is not an error.
func (s *FileStore) Retire(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cluster record: %w", err)
	}
	return nil
}

// ObjectClient is the object storage surface used by S3Store.
type ObjectClient interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

// S3Store keeps the record as an object in a bucket.
type S3Store struct {
	client ObjectClient
	bucket string
	key    string
	format Format
	// isMissing classifies a GetObject error as a missing object.
	isMissing func(error) bool
}

var _ Store = (*S3Store)(nil)

// NewS3Store returns a store for bucket/key. isMissing reports whether a
// GetObject error means the object does not exist.
func NewS3Store(client ObjectClient, bucket, key string, isMissing func(error) bool) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key, format: FormatFor(key), isMissing: isMissing}
}

// Location returns the s3:// URI.
func (s *S3Store) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}

// Load downloads and decodes the record.
func (s *S3Store) Load(ctx context.Context) (*ClusterRecord, error) {
	data, err := s.client.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		if s.isMissing != nil && s.isMissing(err) {
			return nil, fmt.Errorf("%s: %w", s.Location(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load cluster record: %w", err)
	}
	return Decode(data, s.format)
}

// Save uploads the encoded record.
func (s *S3Store) Save(ctx context.Context, rec *ClusterRecord) error {
	data, err := Encode(rec, s.format)
	if err != nil {
		return err
	}
	if err := s.client.PutObject(ctx, s.bucket, s.key, data); err != nil {
		return fmt.Errorf("failed to save cluster record: %w", err)
	}
	return nil
}

// Retire deletes the record object.
func (s *S3Store) Retire(ctx context.Context) error {
	if err := s.client.DeleteObject(ctx, s.bucket, s.key); err != nil {
		return fmt.Errorf("failed to remove cluster record: %w", err)
	}
	return nil
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
