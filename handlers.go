package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"k8s.io/klog"

	"github.com/vilas-cloud/transfer-bot/pkg/storage"
	"github.com/vilas-cloud/transfer-bot/pkg/transfer"
)

type verifyResult struct {
	Key      string `json:"key"`
	Path     string `json:"path"`
	Verified bool   `json:"verified"`
}

// httpStatus maps the transfer error kinds onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrBucketNotFound),
		errors.Is(err, storage.ErrObjectNotFound),
		os.IsNotExist(err):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, transfer.ErrNoChecksum):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

func getFromFile(keyname string, req *http.Request) ([]byte, string, error) {
	var buf bytes.Buffer
	formFile, header, err := req.FormFile(keyname)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get the %s from formFile", keyname)
	}
	defer formFile.Close()
	io.Copy(&buf, formFile)
	defer buf.Reset()
	return buf.Bytes(), header.Filename, nil
}

// handlePostTransfer uploads every file in the multipart form. The
// object key is the "key" form param when a single file is posted,
// otherwise each file's own name.
func handlePostTransfer(req *http.Request) error {
	klog.Infoln("Entry: handlePostTransfer")
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		klog.Errorf("failed to ParseMultipartForm")
		return fmt.Errorf("failed to ParseMultipartForm")
	}

	if len(req.MultipartForm.File) == 0 {
		return fmt.Errorf("at least one file form param is required")
	}
	key := req.Form.Get("key")
	if key != "" && len(req.MultipartForm.File) > 1 {
		return fmt.Errorf("key param is only valid with a single file")
	}

	for fl := range req.MultipartForm.File {
		content, filename, err := getFromFile(fl, req)
		if err != nil {
			return fmt.Errorf("failed to get the file content: %v", err)
		}
		klog.Infof("file found in the request: %s and the actual filename is %s", fl, filename)

		// The uploader works on local paths, so the form file is
		// staged in a tempfile first.
		tmpfs, err := os.CreateTemp("", "transfer")
		if err != nil {
			return fmt.Errorf("failed to create a tempfile: %v", err)
		}
		defer os.Remove(tmpfs.Name())
		if _, err := tmpfs.Write(content); err != nil {
			return fmt.Errorf("failed to write the file content to the tempfile: %v", err)
		}
		if err := tmpfs.Close(); err != nil {
			return fmt.Errorf("failed to close the tempfile: %v", err)
		}

		objectKey := key
		if objectKey == "" {
			objectKey = filename
		}
		if err := svc.Upload(tmpfs.Name(), cfg.Bucket, objectKey); err != nil {
			return fmt.Errorf("failed to upload %s to the S3 object store: %w", objectKey, err)
		}
	}
	klog.Infoln("Exit: handlePostTransfer")
	return nil
}

// handleGetTransfer downloads the object, verifies its integrity
// against the md5 metadata recorded at upload time and streams the
// local copy back.
func handleGetTransfer(w http.ResponseWriter, req *http.Request) error {
	key := req.URL.Query().Get("key")
	if key == "" {
		return fmt.Errorf("key param is missing")
	}

	localPath, err := svc.Download(key, cfg.Bucket, cfg.DownloadDir)
	if err != nil {
		return fmt.Errorf("failed to get %s from the bucket: %w", key, err)
	}

	verified, err := svc.Verify(localPath, cfg.Bucket, key)
	if err != nil && !errors.Is(err, transfer.ErrNoChecksum) {
		return err
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	contentType := http.DetectContentType(content)
	size := strconv.FormatInt(int64(len(content)), 10)

	//Send the headers
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(localPath))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", size)
	w.Header().Set("X-Integrity-Verified", strconv.FormatBool(verified))

	io.Copy(w, bytes.NewReader(content))
	return nil
}

// handleVerify recomputes the digest of an already downloaded file and
// reports whether it matches the stored record.
func handleVerify(w http.ResponseWriter, req *http.Request) error {
	params := req.URL.Query()
	key := params.Get("key")
	if key == "" {
		return fmt.Errorf("key param is missing")
	}
	localPath := params.Get("path")
	if localPath == "" {
		localPath = filepath.Join(cfg.DownloadDir, filepath.Base(key))
	}

	verified, err := svc.Verify(localPath, cfg.Bucket, key)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(verifyResult{Key: key, Path: localPath, Verified: verified})
}

func handleListObjects(w http.ResponseWriter, req *http.Request) error {
	objects, err := svc.List(cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to list the bucket %s: %w", cfg.Bucket, err)
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(objects)
}
