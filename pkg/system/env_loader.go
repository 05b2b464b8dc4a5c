package system

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// find in root
func findFileInProjectRoot(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			return dir, nil
		}
		parentDir := filepath.Dir(dir)
		if parentDir == dir { // reached the filesystem root
			break
		}
		dir = parentDir
	}
	return "", os.ErrNotExist
}

// LoadEnv loads environment variables from a .env file. If the file is not in
// the current directory, the parents are searched. Variables already set in
// the environment win over the file.
func LoadEnv(filename string) error {
	path := filename
	if _, err := os.Stat(path); err != nil {
		rootDir, rootErr := findFileInProjectRoot(filename)
		if rootErr != nil {
			return rootErr
		}
		path = filepath.Join(rootDir, filename)
	}
	return godotenv.Load(path)
}

// LoadEnvIfPresent is LoadEnv that treats a missing file as success.
func LoadEnvIfPresent(filename string) error {
	if err := LoadEnv(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
