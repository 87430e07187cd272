package filesystem

import (
	"fmt"
	"io"
	"os"
)

// maxDescriptorSize bounds how much of a descriptor file is read
const maxDescriptorSize = 4 << 20

// ReadDescriptor reads a project descriptor file as text
func ReadDescriptor(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open descriptor: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxDescriptorSize))
	if err != nil {
		return "", fmt.Errorf("failed to read descriptor: %w", err)
	}
	return string(content), nil
}

// CopyFile copies a file from src to dst, preserving the permission bits of src
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}
