package objstore

import (
	"context"
	"errors"

	"cloud.google.com/go/storage"
)

// GCSClient adapts a *storage.BucketHandle into an ObjectClient.
type GCSClient struct {
	Bucket *storage.BucketHandle
}

// PutObject implements ObjectClient.
func (c *GCSClient) PutObject(ctx context.Context, key string, data []byte) error {
	w := c.Bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// GetObject implements ObjectClient.
func (c *GCSClient) GetObject(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := c.Bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	return readAll(r, err, func(e error) bool { return errors.Is(e, storage.ErrObjectNotExist) })
}

// DeleteObject implements ObjectClient.
func (c *GCSClient) DeleteObject(ctx context.Context, key string) error {
	err := c.Bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
