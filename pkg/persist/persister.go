package persist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile encodes doc into path with the codec chosen by CodecFor.
func WriteFile(path string, doc any) error {
	return SaveDocument(path, CodecFor(path), doc)
}

// ReadFile decodes path into doc with the codec chosen by CodecFor.
func ReadFile(path string, doc any) error {
	return LoadDocument(path, CodecFor(path), doc)
}

// SaveDocument writes doc to path using codec, creating parent directories.
func SaveDocument(path string, codec Codec, doc any) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create document file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	return nil
}

// LoadDocument reads path into doc using codec. doc must be a pointer.
func LoadDocument(path string, codec Codec, doc any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document file: %w", err)
	}
	defer file.Close()

	return DecodeFrom(file, codec, doc)
}

// DecodeFrom reads one document from r.
func DecodeFrom(r io.Reader, codec Codec, doc any) error {
	err := codec.Decode(r, doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	return nil
}
