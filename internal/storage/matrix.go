package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// SaveMatrix writes m to dir/name as whitespace-delimited text, one row per
// line. When overwrite is false an existing file at the target path is an
// error rather than a silent replace.
func SaveMatrix(dir, name string, m mat.Matrix, overwrite bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file %s exists and overwrite is disabled", path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				if _, err := w.WriteString(" "); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(strconv.FormatFloat(m.At(i, j), 'g', 17, 64)); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// SaveVector writes v as a column matrix.
func SaveVector(dir, name string, v []float64, overwrite bool) error {
	return SaveMatrix(dir, name, mat.NewDense(len(v), 1, append([]float64(nil), v...)), overwrite)
}

// LoadMatrix reads a whitespace-delimited text matrix written by SaveMatrix.
// All rows must have the same number of columns.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data []float64
	rows, cols := 0, -1

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%s: row %d has %d columns, expected %d", path, rows, len(fields), cols)
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, rows, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	return mat.NewDense(rows, cols, data), nil
}

// LoadVector reads a single-column (or single-row) matrix as a slice.
func LoadVector(path string) ([]float64, error) {
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	if cols == 1 {
		out := make([]float64, rows)
		for i := range out {
			out[i] = m.At(i, 0)
		}
		return out, nil
	}
	if rows == 1 {
		out := make([]float64, cols)
		for j := range out {
			out[j] = m.At(0, j)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: not a vector (%dx%d)", path, rows, cols)
}
