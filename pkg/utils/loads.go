package utils

import (
	"encoding/json"
	"os"
)

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load decodes the JSON file at path into a T.
func Load[T any](path string) (T, error) {
	var v T
	f, err := os.Open(path)
	if err != nil {
		return v, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&v)
	return v, err
}
