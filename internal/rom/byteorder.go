package rom

import "fmt"

// ByteOrder identifies how a dump stores the cartridge words.
type ByteOrder string

const (
	OrderBigEndian    ByteOrder = "z64"
	OrderByteSwapped  ByteOrder = "v64"
	OrderLittleEndian ByteOrder = "n64"
	OrderUnknown      ByteOrder = "unknown"
)

var (
	magicBigEndian    = [4]byte{0x80, 0x37, 0x12, 0x40}
	magicByteSwapped  = [4]byte{0x37, 0x80, 0x40, 0x12}
	magicLittleEndian = [4]byte{0x40, 0x12, 0x37, 0x80}
)

// DetectOrder inspects the first four bytes of data.
func DetectOrder(data []byte) ByteOrder {
	if len(data) < 4 {
		return OrderUnknown
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	switch magic {
	case magicBigEndian:
		return OrderBigEndian
	case magicByteSwapped:
		return OrderByteSwapped
	case magicLittleEndian:
		return OrderLittleEndian
	default:
		return OrderUnknown
	}
}

// Normalize returns data in big-endian order. Big-endian and unrecognized
// inputs are returned unchanged; other orders are converted into a new slice.
func Normalize(data []byte) ([]byte, ByteOrder, error) {
	order := DetectOrder(data)
	switch order {
	case OrderByteSwapped:
		if len(data)%2 != 0 {
			return nil, order, fmt.Errorf("byte-swapped image has odd length %d", len(data))
		}
		out := make([]byte, len(data))
		for i := 0; i < len(data); i += 2 {
			out[i], out[i+1] = data[i+1], data[i]
		}
		return out, order, nil
	case OrderLittleEndian:
		if len(data)%4 != 0 {
			return nil, order, fmt.Errorf("little-endian image length %d is not word aligned", len(data))
		}
		out := make([]byte, len(data))
		for i := 0; i < len(data); i += 4 {
			out[i], out[i+1], out[i+2], out[i+3] = data[i+3], data[i+2], data[i+1], data[i]
		}
		return out, order, nil
	default:
		return data, order, nil
	}
}
