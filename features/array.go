package features

import "fmt"

// Array is a dense row-major [Rows, Cols] float32 matrix holding one video's
// feature sequence: one row per extracted feature vector.
type Array struct {
	Data []float32
	Rows int
	Cols int
}

// NewArray wraps a flat buffer with shape metadata. The buffer length must
// equal rows*cols.
func NewArray(data []float32, rows, cols int) (*Array, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("buffer length %d does not match shape [%d, %d]", len(data), rows, cols)
	}
	return &Array{Data: data, Rows: rows, Cols: cols}, nil
}

// Row returns the i-th feature vector as a view into the backing buffer.
func (a *Array) Row(i int) []float32 {
	return a.Data[i*a.Cols : (i+1)*a.Cols]
}

// Slice returns a copy of rows [start, end).
func (a *Array) Slice(start, end int) *Array {
	out := make([]float32, (end-start)*a.Cols)
	copy(out, a.Data[start*a.Cols:end*a.Cols])
	return &Array{Data: out, Rows: end - start, Cols: a.Cols}
}

// Downsample keeps every rate-th row, starting at row zero. A rate of one
// returns the array unchanged.
func (a *Array) Downsample(rate int) *Array {
	if rate <= 1 {
		return a
	}
	rows := (a.Rows + rate - 1) / rate
	out := make([]float32, 0, rows*a.Cols)
	for i := 0; i < a.Rows; i += rate {
		out = append(out, a.Row(i)...)
	}
	return &Array{Data: out, Rows: rows, Cols: a.Cols}
}

// Concat joins chunks along the temporal axis. Every chunk must have the
// same feature dimension.
func Concat(chunks []*Array) (*Array, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to concatenate")
	}
	cols := chunks[0].Cols
	rows := 0
	for i, c := range chunks {
		if c.Cols != cols {
			return nil, fmt.Errorf("chunk %d has feature dim %d, expected %d", i, c.Cols, cols)
		}
		rows += c.Rows
	}
	out := make([]float32, 0, rows*cols)
	for _, c := range chunks {
		out = append(out, c.Data...)
	}
	return &Array{Data: out, Rows: rows, Cols: cols}, nil
}
