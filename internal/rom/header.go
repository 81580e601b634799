package rom

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const (
	headerSize     = 0x40
	nameOffset     = 0x20
	nameEnd        = 0x34
	gameCodeOffset = 0x3B
	revisionOffset = 0x3F
)

// ErrShortHeader is returned when the image is smaller than a cartridge header.
var ErrShortHeader = errors.New("rom image shorter than cartridge header")

// Header holds the fields read from the first 64 bytes of a big-endian image.
type Header struct {
	Order    ByteOrder
	Name     string
	GameCode string
	Region   byte
	Revision byte
}

// RegionName maps the destination byte of the game code to a short label.
func (h Header) RegionName() string {
	switch h.Region {
	case 'E':
		return "US"
	case 'J':
		return "JP"
	case 'P', 'D', 'F', 'I', 'S', 'U', 'X', 'Y':
		return "EU"
	case 'C':
		return "CN"
	case 'A':
		return "ALL"
	case 0:
		return ""
	default:
		return string(rune(h.Region))
	}
}

// String renders a compact summary for logs.
func (h Header) String() string {
	return fmt.Sprintf("%s [%s] rev %d", h.Name, h.GameCode, h.Revision)
}

// ParseHeader extracts the header from big-endian data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, ErrShortHeader
	}
	header := Header{
		Order:    DetectOrder(data),
		Name:     decodeName(data[nameOffset:nameEnd]),
		GameCode: strings.TrimRight(string(data[gameCodeOffset:revisionOffset]), "\x00 "),
		Revision: data[revisionOffset],
	}
	if len(header.GameCode) == 4 {
		header.Region = header.GameCode[3]
	}
	return header, nil
}

// decodeName reads the internal name, which is Shift-JIS on Japanese carts.
func decodeName(raw []byte) string {
	trimmed := bytes.TrimRight(raw, "\x00 ")
	if len(trimmed) == 0 {
		return ""
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), trimmed)
	if err != nil {
		return strings.TrimSpace(string(trimmed))
	}
	return strings.TrimSpace(string(decoded))
}
