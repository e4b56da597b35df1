package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrBadRecord is returned for a record whose dimension is invalid or differs from the first.
var ErrBadRecord = errors.New("dataset: malformed vecs record")

// LoadFvecs reads up to limit vectors from an .fvecs file (limit <= 0 reads all).
func LoadFvecs(path string, limit int) (*Matrix, error) {
	var m *Matrix
	err := withReader(path, func(r io.Reader) error {
		var err error
		m, err = ReadFvecs(r, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: load %s: %w", path, err)
	}
	return m, nil
}

// ReadFvecs reads up to limit fvecs records from r (limit <= 0 reads all).
func ReadFvecs(r io.Reader, limit int) (*Matrix, error) {
	dim, raw, err := readVecs(r, limit)
	if err != nil {
		return nil, err
	}
	data := make([]float32, len(raw))
	for i, u := range raw {
		data[i] = math.Float32frombits(u)
	}
	return &Matrix{Data: data, N: rows(len(data), dim), Dim: dim}, nil
}

// WriteFvecs writes m in fvecs layout.
func WriteFvecs(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < m.N; i++ {
		if err := binary.Write(bw, binary.LittleEndian, int32(m.Dim)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, m.Row(i)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadIvecs reads up to limit ivecs records from r as rows of ids.
func ReadIvecs(r io.Reader, limit int) ([][]uint64, error) {
	dim, raw, err := readVecs(r, limit)
	if err != nil {
		return nil, err
	}
	out := make([][]uint64, rows(len(raw), dim))
	for i := range out {
		row := make([]uint64, dim)
		for j := range row {
			id := int32(raw[i*dim+j])
			if id < 0 {
				return nil, fmt.Errorf("%w: negative id %d in row %d", ErrBadRecord, id, i)
			}
			row[j] = uint64(id)
		}
		out[i] = row
	}
	return out, nil
}

// WriteIvecs writes rows of ids in ivecs layout. Every row must have the same length.
func WriteIvecs(w io.Writer, ids [][]uint64) error {
	bw := bufio.NewWriter(w)
	for i, row := range ids {
		if len(row) != len(ids[0]) {
			return fmt.Errorf("%w: row %d has %d ids, want %d", ErrBadRecord, i, len(row), len(ids[0]))
		}
		if err := binary.Write(bw, binary.LittleEndian, int32(len(row))); err != nil {
			return err
		}
		for _, id := range row {
			if id > math.MaxInt32 {
				return fmt.Errorf("%w: id %d does not fit int32", ErrBadRecord, id)
			}
			if err := binary.Write(bw, binary.LittleEndian, int32(id)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// maxDim bounds the per-record dimension so a corrupt header cannot trigger a huge allocation.
const maxDim = 1 << 16

// readVecs reads records of 4-byte values; every record must share the first record's dimension.
func readVecs(r io.Reader, limit int) (int, []uint32, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var (
		dim  int
		out  []uint32
		head [4]byte
	)
	for n := 0; limit <= 0 || n < limit; n++ {
		if _, err := io.ReadFull(br, head[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, nil, fmt.Errorf("%w: record %d: %v", ErrBadRecord, n, err)
		}
		d := int(int32(binary.LittleEndian.Uint32(head[:])))
		if d <= 0 || d > maxDim || (dim != 0 && d != dim) {
			return 0, nil, fmt.Errorf("%w: record %d has dimension %d", ErrBadRecord, n, d)
		}
		dim = d
		start := len(out)
		out = append(out, make([]uint32, d)...)
		if err := binary.Read(br, binary.LittleEndian, out[start:]); err != nil {
			return 0, nil, fmt.Errorf("%w: record %d truncated: %v", ErrBadRecord, n, err)
		}
	}
	if dim == 0 {
		return 0, nil, fmt.Errorf("%w: no records", ErrBadRecord)
	}
	return dim, out, nil
}

func rows(values, dim int) int {
	if dim == 0 {
		return 0
	}
	return values / dim
}

// withReader opens path, decompressing .zst files, and calls fn with the stream.
func withReader(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if !strings.HasSuffix(path, ".zst") {
		return fn(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	return fn(dec)
}
