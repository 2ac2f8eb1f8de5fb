package sharestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

var ErrUnsupportedReference = errors.New("unsupported image reference")

// LocalReader reads plain paths, file:// URIs and base64 data: URIs.
type LocalReader struct{}

func (LocalReader) Read(ctx context.Context, location string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, "", errors.New("no image data")
	}

	switch {
	case strings.HasPrefix(location, "data:"):
		return decodeDataURI(location)
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse file uri: %w", err)
		}
		return readFile(u.Path)
	case strings.Contains(location, "://"):
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedReference, location)
	default:
		return readFile(location)
	}
}

func readFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image file is empty: %s", path)
	}
	return data, http.DetectContentType(data), nil
}

func decodeDataURI(data string) ([]byte, string, error) {
	parts := strings.SplitN(data, ",", 2)
	if len(parts) != 2 {
		return nil, "", errors.New("malformed data uri")
	}
	header := strings.TrimPrefix(parts[0], "data:")
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: data uri must be base64", ErrUnsupportedReference)
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", err
	}
	if len(decoded) == 0 {
		return nil, "", errors.New("no image data")
	}

	contentType := strings.TrimSuffix(header, ";base64")
	if contentType == "" {
		contentType = http.DetectContentType(decoded)
	}
	return decoded, contentType, nil
}
