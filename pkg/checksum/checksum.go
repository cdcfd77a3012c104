// Package checksum computes content digests of local files for
// transfer integrity checks.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// chunkSize matches the 4096-byte read size used by existing stored
// records; the digest itself does not depend on it.
const chunkSize = 4096

// FileMD5 returns the lowercase hex MD5 digest of the file at path.
// MD5 is used for corruption detection only, not security.
func FileMD5(path string) (string, error) {
	return fileMD5(path, chunkSize)
}

func fileMD5(path string, readSize int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := md5.New()
	buf := make([]byte, readSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
