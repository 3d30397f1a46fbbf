package storage

import (
	"context"
	"fmt"

	"sample-monitor/utils"
)

// Copy writes every object of src into dst, keeping content type and
// metadata, and returns the copied keys in listing order. When a write
// fails the keys already copied are removed from dst again, so dst either
// receives all of src or none of it.
func Copy(ctx context.Context, src, dst Store) ([]string, error) {
	objs, err := src.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", src.Driver(), err)
	}
	copied := make([]string, 0, len(objs))
	for _, o := range objs {
		if err = copyOne(ctx, src, dst, o.Key); err != nil {
			rollback(ctx, dst, copied)
			return nil, err
		}
		copied = append(copied, o.Key)
	}
	return copied, nil
}

func copyOne(ctx context.Context, src, dst Store, key string) error {
	info, rc, err := src.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", key, err)
	}
	defer rc.Close()
	if _, err := dst.Put(ctx, key, rc, PutOptions{ContentType: info.ContentType, Metadata: info.Metadata}); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

func rollback(ctx context.Context, dst Store, keys []string) {
	for _, k := range keys {
		if _, err := dst.Delete(context.WithoutCancel(ctx), k); err != nil {
			utils.L().Warn("storage: rollback %s: %v", k, err)
		}
	}
}
