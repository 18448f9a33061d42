package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Object is a single upload request.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Body        io.Reader
}

// Service stores expense exports in remote object storage.
type Service interface {
	Upload(ctx context.Context, obj Object) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
