package rom

import (
	"encoding/hex"
	"fmt"
	"os"
	"sync"
)

// Image is an immutable cartridge image held in big-endian order.
type Image struct {
	path   string
	data   []byte
	source ByteOrder

	digestOnce sync.Once
	digest     string
}

// Load reads path and normalizes the image byte order.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom %q: %w", path, err)
	}
	img, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("load rom %q: %w", path, err)
	}
	img.path = path
	return img, nil
}

// FromBytes builds an Image from raw dump bytes. The caller must not modify
// data afterwards when it is already big-endian.
func FromBytes(data []byte) (*Image, error) {
	normalized, order, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	return &Image{data: normalized, source: order}, nil
}

// Path returns the file the image was loaded from, if any.
func (i *Image) Path() string { return i.path }

// Len returns the image size in bytes.
func (i *Image) Len() int { return len(i.data) }

// SourceOrder reports the byte order the dump was stored in before normalization.
func (i *Image) SourceOrder() ByteOrder { return i.source }

// Bytes returns the normalized image. The slice is shared; callers must not
// modify it.
func (i *Image) Bytes() []byte { return i.data }

// Digest returns the cached content digest.
func (i *Image) Digest() string {
	i.digestOnce.Do(func() {
		i.digest = Digest(i.data)
	})
	return i.digest
}

// Header parses the cartridge header.
func (i *Image) Header() (Header, error) {
	return ParseHeader(i.data)
}

// Preview returns the first n bytes as space separated hex pairs.
func (i *Image) Preview(n int) string {
	if n > len(i.data) {
		n = len(i.data)
	}
	if n <= 0 {
		return ""
	}
	encoded := hex.EncodeToString(i.data[:n])
	out := make([]byte, 0, n*3-1)
	for idx := 0; idx < len(encoded); idx += 2 {
		if idx > 0 {
			out = append(out, ' ')
		}
		out = append(out, encoded[idx], encoded[idx+1])
	}
	return string(out)
}
