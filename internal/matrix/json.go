package matrix

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON creates or truncates path and writes m as a nested JSON array.
// A failure part-way leaves whatever was written.
func WriteJSON(path string, m Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := json.NewEncoder(f).Encode(rows(m)); err != nil {
		f.Close()
		return fmt.Errorf("encoding similarity matrix: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// ReadJSON loads a matrix written by WriteJSON and checks that it is square.
func ReadJSON(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix: %w", err)
	}

	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse matrix: %w", err)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// rows keeps an empty matrix as [] rather than null.
func rows(m Matrix) [][]float64 {
	if m == nil {
		return [][]float64{}
	}
	return m
}
