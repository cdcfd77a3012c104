// Package transfer implements integrity-checked file transfers against
// an object storage backend. The local MD5 digest of every uploaded
// file is recorded in object metadata under the "md5" key and compared
// against a fresh local digest after download.
package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/vilas-cloud/transfer-bot/pkg/checksum"
	"github.com/vilas-cloud/transfer-bot/pkg/storage"
)

// MetadataKey is the object metadata entry holding the upload-time digest.
const MetadataKey = "md5"

// ErrNoChecksum is reported when a verified object carries no "md5"
// metadata entry. It is distinct from a digest mismatch.
var ErrNoChecksum = errors.New("object has no md5 metadata entry")

// Service runs uploads, downloads, listings and integrity checks over
// an injected storage backend. Every operation is a blocking call with
// no retries; failures surface to the caller.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Upload transfers the local file to the bucket under key, recording
// its MD5 digest in the object metadata. The object and its metadata
// land in a single put, so either both exist afterwards or neither does.
func (s *Service) Upload(filePath, bucket, key string) error {
	klog.Infof("Uploading %s to bucket %s", filePath, bucket)

	digest, err := checksum.FileMD5(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			klog.Errorf("File %s not found", filePath)
			return err
		}
		return fmt.Errorf("failed to compute digest of %s: %w", filePath, err)
	}

	metadata := map[string]string{MetadataKey: digest}
	if err := s.store.Upload(bucket, key, filePath, metadata); err != nil {
		klog.Errorf("upload failed: %v", err)
		return fmt.Errorf("failed to upload %s: %w", filePath, err)
	}
	klog.Info("File uploaded successfully")
	return nil
}

// Download transfers the object to <downloadDir>/<base name of key>,
// creating the directory when absent, and returns the local path. The
// bucket is head-checked first; a missing or inaccessible bucket skips
// the transfer entirely.
func (s *Service) Download(key, bucket, downloadDir string) (string, error) {
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download dir %s: %w", downloadDir, err)
	}

	if err := s.store.HeadBucket(bucket); err != nil {
		switch {
		case errors.Is(err, storage.ErrBucketNotFound):
			klog.Errorf("Bucket does not exist: %s", bucket)
		case errors.Is(err, storage.ErrAccessDenied):
			klog.Errorf("Access denied to bucket: %s", bucket)
		}
		return "", err
	}

	klog.Infof("Downloading %s from bucket %s", key, bucket)
	localPath := filepath.Join(downloadDir, filepath.Base(key))
	if err := s.store.Download(bucket, key, localPath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			klog.Errorf("File does not exist in bucket: %s", key)
		}
		return "", err
	}
	klog.Info("File downloaded successfully")
	return localPath, nil
}

// Verify recomputes the digest of the local file and compares it with
// the digest stored in the object metadata at upload time. It returns
// true on a match and false on a mismatch; an object with no "md5"
// metadata entry fails with ErrNoChecksum rather than either outcome.
func (s *Service) Verify(filePath, bucket, key string) (bool, error) {
	localDigest, err := checksum.FileMD5(filePath)
	if err != nil {
		return false, err
	}

	metadata, err := s.store.HeadObject(bucket, key)
	if err != nil {
		return false, fmt.Errorf("failed to read metadata of %s: %w", key, err)
	}
	remoteDigest, ok := metadata[MetadataKey]
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrNoChecksum, bucket, key)
	}

	if localDigest != remoteDigest {
		klog.Errorf("file integrity verification failed for %s, the downloaded file may be corrupted", filePath)
		return false, nil
	}
	klog.Infof("file integrity verified successfully for %s", filePath)
	return true, nil
}

// List walks the bucket and returns every object. An empty bucket is a
// valid outcome, reported distinctly rather than as an error.
func (s *Service) List(bucket string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	err := s.store.ListObjects(bucket, func(info storage.ObjectInfo) bool {
		klog.Infof("%s \t %d bytes \t Last Modified: %s", info.Key, info.Size, info.LastModified)
		objects = append(objects, info)
		return true
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBucketNotFound):
			klog.Errorf("Bucket does not exist: %s", bucket)
		case errors.Is(err, storage.ErrAccessDenied):
			klog.Errorf("Access denied to bucket: %s", bucket)
		}
		return nil, err
	}
	if len(objects) == 0 {
		klog.Info("Bucket is empty.")
	}
	return objects, nil
}
