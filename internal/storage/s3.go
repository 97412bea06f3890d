// Package storage provides S3 storage integration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// S3ClientInterface defines the interface for S3 operations.
type S3ClientInterface interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "problem-pool/"

// S3Mirror keeps copies of the pool file in S3.
//
// Every snapshot is written twice: once under snapshots/ with a
// timestamped unique name, and once as latest.json.
type S3Mirror struct {
	client S3ClientInterface
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Mirror creates a new S3Mirror.
func NewS3Mirror(client S3ClientInterface, bucket string, prefix string) *S3Mirror {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Mirror{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Bucket returns the target bucket name.
func (m *S3Mirror) Bucket() string {
	return m.bucket
}

// LatestKey returns the key of the most recent snapshot copy.
func (m *S3Mirror) LatestKey() string {
	return m.prefix + "latest.json"
}

func (m *S3Mirror) snapshotPrefix() string {
	return m.prefix + "snapshots/"
}

// Snapshot uploads data as a new snapshot and as latest.json.
func (m *S3Mirror) Snapshot(ctx context.Context, data []byte) error {
	_, err := m.Upload(ctx, data)
	return err
}

// Upload is Snapshot that also returns the key of the timestamped copy.
func (m *S3Mirror) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("refusing to upload empty snapshot")
	}

	// Generate unique filename
	id := uuid.New().String()[:8]
	key := fmt.Sprintf("%s%s-%s.json", m.snapshotPrefix(), m.now().UTC().Format("20060102T150405Z"), id)

	if err := m.client.PutObject(ctx, key, data); err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}
	if err := m.client.PutObject(ctx, m.LatestKey(), data); err != nil {
		return "", fmt.Errorf("failed to update latest snapshot: %w", err)
	}
	return key, nil
}

// Latest downloads latest.json.
func (m *S3Mirror) Latest(ctx context.Context) ([]byte, error) {
	data, err := m.client.GetObject(ctx, m.LatestKey())
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return data, nil
}

// Get downloads a snapshot by key. A bare file name is resolved under
// the snapshot prefix.
func (m *S3Mirror) Get(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, m.prefix) {
		key = m.snapshotPrefix() + key
	}
	data, err := m.client.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	return data, nil
}

// ListSnapshots returns snapshot keys, oldest first.
func (m *S3Mirror) ListSnapshots(ctx context.Context) ([]string, error) {
	keys, err := m.client.ListObjects(ctx, m.snapshotPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, ".json") {
			snapshots = append(snapshots, key)
		}
	}
	return snapshots, nil
}
