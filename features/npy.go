package features

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Reader loads a feature array from a file. The dataset layer depends only
// on this interface, so corpora with other serialization formats can plug in
// their own codec.
type Reader interface {
	Read(path string) (*Array, error)
}

// NPYReader reads NumPy .npy files holding little-endian float32 arrays of
// one or two dimensions, which is how precomputed CLIP and I3D clip features
// are distributed.
type NPYReader struct{}

var npyMagic = []byte("\x93NUMPY")

// Read parses the npy header and returns the array as [time, dim]. A
// one-dimensional file is treated as a single-column matrix.
func (NPYReader) Read(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	header, err := readNPYHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows, cols := header.shape[0], 1
	if len(header.shape) == 2 {
		cols = header.shape[1]
	}

	raw := make([]byte, 4*rows*cols)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("%s: truncated data section: %w", path, err)
	}
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return &Array{Data: data, Rows: rows, Cols: cols}, nil
}

type npyHeader struct {
	shape []int
}

func readNPYHeader(r io.Reader) (*npyHeader, error) {
	pre := make([]byte, 8)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("short preamble: %w", err)
	}
	if !bytes.Equal(pre[:6], npyMagic) {
		return nil, fmt.Errorf("not an npy file")
	}
	major := pre[6]

	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("short header length: %w", err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("short header length: %w", err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("unsupported npy version %d", major)
	}

	buf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("short header: %w", err)
	}
	return parseNPYDict(string(buf))
}

// parseNPYDict pulls descr, fortran_order and shape out of the header's
// python dict literal without a full parser; the writer format is rigid
// enough that keyword search is reliable.
func parseNPYDict(s string) (*npyHeader, error) {
	descr, err := dictValue(s, "descr")
	if err != nil {
		return nil, err
	}
	descr = strings.Trim(descr, "'\" ")
	if descr != "<f4" && descr != "|f4" {
		return nil, fmt.Errorf("unsupported dtype %q, want little-endian float32", descr)
	}

	order, err := dictValue(s, "fortran_order")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(order) != "False" {
		return nil, fmt.Errorf("fortran-order arrays are not supported")
	}

	open := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if open < 0 || end < open {
		return nil, fmt.Errorf("malformed shape tuple")
	}
	var shape []int
	for _, part := range strings.Split(s[open+1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed shape entry %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative shape entry %d", n)
		}
		shape = append(shape, n)
	}
	if len(shape) == 0 || len(shape) > 2 {
		return nil, fmt.Errorf("want a 1-D or 2-D array, got %d dims", len(shape))
	}
	return &npyHeader{shape: shape}, nil
}

// dictValue returns the raw text between "'key':" and the next comma or
// closing brace.
func dictValue(s, key string) (string, error) {
	marker := "'" + key + "':"
	i := strings.Index(s, marker)
	if i < 0 {
		return "", fmt.Errorf("header missing %s", key)
	}
	rest := s[i+len(marker):]
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end]), nil
}
