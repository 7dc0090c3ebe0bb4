package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rcliao/slowpost/internal/model"
)

// WriteLetters writes letters as an indented JSON array.
func WriteLetters(w io.Writer, letters []model.Letter) error {
	if letters == nil {
		letters = []model.Letter{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(letters)
}

// ReadLetters decodes the format produced by WriteLetters. A single object
// is accepted as well as an array.
func ReadLetters(r io.Reader) ([]model.Letter, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read letters: %w", err)
	}
	var letters []model.Letter
	if err := json.Unmarshal(data, &letters); err == nil {
		return letters, nil
	}
	var one model.Letter
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse letters: %w", err)
	}
	return []model.Letter{one}, nil
}
