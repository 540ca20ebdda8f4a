package model

import (
	"context"
	"io"
)

// Archive stores exported session snapshots.
type Archive interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
}
