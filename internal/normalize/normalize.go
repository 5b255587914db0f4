// internal/normalize/normalize.go
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// VolatilePaths are fields the cluster rewrites on its own.
var VolatilePaths = [][]string{
	{"metadata", "managedFields"},
	{"metadata", "resourceVersion"},
	{"metadata", "uid"},
	{"metadata", "generation"},
	{"metadata", "creationTimestamp"},
	{"metadata", "selfLink"},
	{"metadata", "annotations", "kubectl.kubernetes.io/last-applied-configuration"},
	{"metadata", "annotations", "deployment.kubernetes.io/revision"},
	{"status"},
}

type Options struct {
	// KeepVolatile disables stripping of VolatilePaths.
	KeepVolatile bool
	// StripPaths are removed in addition to VolatilePaths.
	StripPaths [][]string
}

// ParsePath splits a dotted field path. Segments containing dots can be
// written in brackets: metadata.annotations[example.com/key].
func ParsePath(s string) ([]string, error) {
	var path []string
	for s != "" {
		if s[0] == '[' {
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated [ in path %q", s)
			}
			path = append(path, s[1:end])
			s = strings.TrimPrefix(s[end+1:], ".")
			continue
		}
		end := strings.IndexAny(s, ".[")
		if end < 0 {
			path = append(path, s)
			break
		}
		path = append(path, s[:end])
		s = strings.TrimPrefix(s[end:], ".")
	}
	if len(path) == 0 {
		return nil, errors.New("empty path")
	}
	return path, nil
}

// Normalize decodes every YAML document in doc, strips volatile fields and
// re-encodes them with sorted keys and two-space indentation.
func Normalize(doc []byte, opts Options) ([]byte, error) {
	paths := opts.StripPaths
	if !opts.KeepVolatile {
		paths = append(append([][]string(nil), VolatilePaths...), paths...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	dec := yaml.NewDecoder(bytes.NewReader(doc))
	for n := 0; ; n++ {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", n, err)
		}
		if v == nil {
			continue
		}

		stripResource(v, paths)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding document %d: %w", n, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flushing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// stripResource removes paths from a resource and, for List kinds, from each
// of its items.
func stripResource(v any, paths [][]string) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		strip(obj, p)
	}
	if items, ok := obj["items"].([]any); ok {
		for _, item := range items {
			stripResource(item, paths)
		}
	}
}

// strip deletes path from obj and prunes maps it leaves empty.
func strip(obj map[string]any, path []string) {
	if len(path) == 1 {
		delete(obj, path[0])
		return
	}
	child, ok := obj[path[0]].(map[string]any)
	if !ok {
		return
	}
	strip(child, path[1:])
	if len(child) == 0 {
		delete(obj, path[0])
	}
}
