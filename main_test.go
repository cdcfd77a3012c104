package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vilas-cloud/transfer-bot/pkg/storage"
	"github.com/vilas-cloud/transfer-bot/pkg/transfer"
)

// memStore is a single-bucket in-memory backend for handler tests.
type memStore struct {
	bucket   string
	objects  map[string][]byte
	metadata map[string]map[string]string
}

func newMemStore(bucket string) *memStore {
	return &memStore{
		bucket:   bucket,
		objects:  map[string][]byte{},
		metadata: map[string]map[string]string{},
	}
}

func (m *memStore) HeadBucket(bucket string) error {
	if bucket != m.bucket {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	return nil
}

func (m *memStore) Upload(bucket, key, localPath string, metadata map[string]string) error {
	if err := m.HeadBucket(bucket); err != nil {
		return err
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.objects[key] = content
	m.metadata[key] = metadata
	return nil
}

func (m *memStore) Download(bucket, key, localPath string) error {
	if err := m.HeadBucket(bucket); err != nil {
		return err
	}
	content, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return os.WriteFile(localPath, content, 0644)
}

func (m *memStore) HeadObject(bucket, key string) (map[string]string, error) {
	if err := m.HeadBucket(bucket); err != nil {
		return nil, err
	}
	metadata, ok := m.metadata[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return metadata, nil
}

func (m *memStore) ListObjects(bucket string, fn func(storage.ObjectInfo) bool) error {
	if err := m.HeadBucket(bucket); err != nil {
		return err
	}
	for key, content := range m.objects {
		if !fn(storage.ObjectInfo{Key: key, Size: int64(len(content))}) {
			return nil
		}
	}
	return nil
}

func setupServer(t *testing.T) (*memStore, *httptest.Server) {
	t.Helper()
	store := newMemStore("test-bucket")
	cfg = &Config{Bucket: "test-bucket", DownloadDir: t.TempDir()}
	svc = transfer.NewService(store)
	server := httptest.NewServer(newRouter())
	t.Cleanup(server.Close)
	return store, server
}

func postFile(t *testing.T, url, key, filename string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if key != "" {
		writer.WriteField("key", key)
	}
	part, err := writer.CreateFormFile("file", filename)
	assert.Nil(t, err)
	part.Write(content)
	assert.Nil(t, writer.Close())

	resp, err := http.Post(url+"/transfer", writer.FormDataContentType(), &body)
	assert.Nil(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	_, server := setupServer(t)

	resp, err := http.Get(server.URL + "/health")
	assert.Nil(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestUploadThenDownloadEndpoint(t *testing.T) {
	store, server := setupServer(t)
	content := []byte("covid,data\n1,2\n")

	resp := postFile(t, server.URL, "covid_data.csv", "covid_data.csv", content)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "af813c28448423fda43496832dc58ca7", store.metadata["covid_data.csv"][transfer.MetadataKey])

	resp, err := http.Get(server.URL + "/transfer?key=covid_data.csv")
	assert.Nil(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, content, body)
	assert.Equal(t, "true", resp.Header.Get("X-Integrity-Verified"))
}

func TestDownloadMissingObjectEndpoint(t *testing.T) {
	_, server := setupServer(t)

	resp, err := http.Get(server.URL + "/transfer?key=nope.csv")
	assert.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyEndpointMissingChecksum(t *testing.T) {
	store, server := setupServer(t)
	store.objects["legacy.txt"] = []byte("stored before integrity checks")
	store.metadata["legacy.txt"] = map[string]string{}

	resp, err := http.Get(server.URL + "/transfer?key=legacy.txt")
	assert.Nil(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get("X-Integrity-Verified"))

	resp, err = http.Get(server.URL + "/verify?key=legacy.txt")
	assert.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestVerifyEndpoint(t *testing.T) {
	_, server := setupServer(t)
	content := []byte("verified content")

	resp := postFile(t, server.URL, "", "data.txt", content)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(server.URL + "/transfer?key=data.txt")
	assert.Nil(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/verify?key=data.txt")
	assert.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result verifyResult
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Verified)
	assert.Equal(t, "data.txt", result.Key)
}

func TestObjectsEndpointEmptyBucket(t *testing.T) {
	_, server := setupServer(t)

	resp, err := http.Get(server.URL + "/objects")
	assert.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var objects []storage.ObjectInfo
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&objects))
	assert.Len(t, objects, 0)
}

func TestObjectsEndpoint(t *testing.T) {
	store, server := setupServer(t)
	store.objects["a.txt"] = []byte("aa")
	store.objects["b.txt"] = []byte("bbb")

	resp, err := http.Get(server.URL + "/objects")
	assert.Nil(t, err)
	defer resp.Body.Close()

	var objects []storage.ObjectInfo
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&objects))
	assert.Len(t, objects, 2)
}
