package storageprovider

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/flamel/flamel/internal/storageutil"
)

// Blob implements storageutil.ObjectHandler on a gocloud bucket, so the
// service runs the same against file://, mem:// or gs:// URLs.
type Blob struct {
	Bucket *blob.Bucket
}

// Put writes an object to the bucket with name being the path.
func (b *Blob) Put(ctx context.Context, name string) (io.WriteCloser, error) {
	return b.Bucket.NewWriter(ctx, name, nil)
}

// Get reads an object from the bucket with name being the path. If the key
// was not found, it returns storageutil.ErrObjectNotFound.
func (b *Blob) Get(ctx context.Context, name string) (storageutil.ReadSizeCloser, error) {
	r, err := b.Bucket.NewReader(ctx, name, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, storageutil.ErrObjectNotFound
		}
		return nil, err
	}
	return r, nil
}
