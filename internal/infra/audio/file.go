package audio

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const maxFileBytes = 16 << 20

var contentTypes = map[string]string{
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".oga":  "audio/ogg",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// FileFetcher serves voice notes from the local filesystem so the
// pipeline can run without a messaging provider. Media URLs are plain
// paths or file:// URLs, resolved relative to dir.
type FileFetcher struct {
	dir string
}

func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{dir: dir}
}

// URL returns the media URL for path, suitable for an inbound message.
func (f *FileFetcher) URL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func (f *FileFetcher) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := f.resolve(mediaURL)
	if err != nil {
		return nil, err
	}

	if _, ok := ContentType(path); !ok {
		return nil, fmt.Errorf("unsupported audio file %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxFileBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", path, maxFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

func (f *FileFetcher) resolve(mediaURL string) (string, error) {
	path := mediaURL
	if strings.HasPrefix(mediaURL, "file:") {
		u, err := url.Parse(mediaURL)
		if err != nil {
			return "", fmt.Errorf("parsing media URL: %w", err)
		}
		path = filepath.FromSlash(u.Path)
	}
	if path == "" {
		return "", fmt.Errorf("empty media path")
	}
	if !filepath.IsAbs(path) && f.dir != "" {
		path = filepath.Join(f.dir, path)
	}
	return path, nil
}

// ContentType guesses the MIME type of an audio file from its extension.
func ContentType(path string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	return ct, ok
}
