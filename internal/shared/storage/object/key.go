package object

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for upload names that cannot form a key.
var ErrInvalidName = errors.New("invalid file name")

const maxNameLen = 120

// NewKey returns "<user dir>/<uuid>_<name>". The user directory is a hash so
// Google subject IDs never appear in bucket listings.
func NewKey(userID, fileName string) (string, error) {
	name, err := cleanName(fileName)
	if err != nil {
		return "", err
	}
	return UserDir(userID) + "/" + uuid.NewString() + "_" + name, nil
}

// UserDir is the per-user key prefix.
func UserDir(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
}

func cleanName(fileName string) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(fileName, "\\", "/"))
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return "", ErrInvalidName
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if len(name) > maxNameLen {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxNameLen-len(ext)] + ext
	}
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// Sniff reads the first 512 bytes to detect the content type and returns a
// reader that replays them.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
