package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed header size.
	HeaderSize = 64

	// Magic identifies a valid annbench tree file.
	Magic = "ANNT"

	// FormatVersion is the current file format version.
	FormatVersion uint16 = 2
)

var (
	// ErrBadMagic is returned when the file does not start with Magic.
	ErrBadMagic = errors.New("store: invalid magic")
	// ErrVersion is returned for an unsupported format version.
	ErrVersion = errors.New("store: unsupported format version")
	// ErrShortHeader is returned when fewer than HeaderSize bytes are available.
	ErrShortHeader = errors.New("store: header too short")
)

// Header holds the persisted index metadata.
type Header struct {
	Magic           [4]byte
	Version         uint16
	Metric          uint8
	_               uint8
	Dim             uint32
	VectorsPerBlock uint32
	BlockSizeBytes  uint32
	NumBlocks       uint32
	TreeLen         uint32
	Count           uint64
	RoutingOffset   uint64
	DataOffset      uint64
	Reserved        [8]byte // pad to 64 bytes
}

// BlockBytes returns the byte size of one block with the given shape.
func BlockBytes(vectorsPerBlock, dim int) int {
	return vectorsPerBlock * dim * 4
}

// EncodeHeader writes the header to a byte slice, padded to HeaderSize.
func EncodeHeader(h *Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("store: header is nil")
	}
	copy(h.Magic[:], Magic)
	h.Version = FormatVersion
	var w bytes.Buffer
	if err := binary.Write(&w, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("store: encode header: %w", err)
	}
	b := w.Bytes()
	if len(b) < HeaderSize {
		padded := make([]byte, HeaderSize)
		copy(padded, b)
		return padded, nil
	}
	return b, nil
}

// DecodeHeader reads the header from src. Returns error if magic/version invalid.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, ErrShortHeader
	}
	var h Header
	r := bytes.NewReader(src[:HeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("store: decode header: %w", err)
	}
	if string(h.Magic[:]) != Magic {
		return nil, ErrBadMagic
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return &h, nil
}
