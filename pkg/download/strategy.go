package download

import (
	"context"
	"fmt"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// Strategy is the protocol specific half of a Batch.
type Strategy interface {
	Protocol() Protocol
	// Acquire obtains the underlying archive or verifies the transport.
	Acquire(ctx context.Context, b *Batch) error
	// Enumerate acquires and then populates b with one Item per entry.
	Enumerate(ctx context.Context, b *Batch) error
	// FetchOne transfers a single entry to its local path.
	FetchOne(ctx context.Context, b *Batch, it *Item) error
}

func newStrategy(p Protocol, deps Deps) (Strategy, error) {
	switch p {
	case ProtocolZIP:
		return &zipStrategy{fetcher: deps.HTTP}, nil
	case ProtocolFTP:
		return &ftpStrategy{newClient: deps.FTP}, nil
	case ProtocolStream:
		return &streamStrategy{fetcher: deps.Stream}, nil
	default:
		return nil, zlerrors.ErrUnknownProtocolWithName(string(p))
	}
}

func unsupported(p Protocol, op string) error {
	return fmt.Errorf("%w: %s does not support %s", zlerrors.ErrUnsupportedOperation, p, op)
}
