package storage

import (
	"errors"
	"time"
)

// Error kinds reported by Storage implementations. Callers match them
// with errors.Is instead of inspecting backend error codes.
var (
	ErrBucketNotFound = errors.New("bucket does not exist")
	ErrAccessDenied   = errors.New("access denied to bucket")
	ErrObjectNotFound = errors.New("object does not exist in bucket")
)

// ObjectInfo describes a single listed object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

type Storage interface {
	// HeadBucket checks the bucket exists and is accessible
	HeadBucket(bucket string) error
	// Upload transfers a local file to the bucket with the given object metadata
	Upload(bucket, key, localPath string, metadata map[string]string) error
	// Download transfers an object to a local file
	Download(bucket, key, localPath string) error
	// HeadObject fetches object metadata without transferring data, keys lowercased
	HeadObject(bucket, key string) (map[string]string, error)
	// ListObjects walks the bucket page by page, stopping when fn returns false
	ListObjects(bucket string, fn func(ObjectInfo) bool) error
}
