// Package compression provides the response body encoders the server can
// negotiate with a client.
package compression

import (
	"bytes"
	"compress/gzip"
	"sort"
)

// Encoder compresses a complete body
type Encoder func(data []byte) ([]byte, error)

var encoders = map[string]Encoder{
	"gzip": Gzip,
}

// Lookup returns the encoder registered for a Content-Encoding token
func Lookup(name string) (Encoder, bool) {
	enc, ok := encoders[name]
	return enc, ok
}

// Supported lists the registered encoding names in sorted order
func Supported() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gzip returns the gzip member for data. The header carries no name or
// modification time, so equal inputs produce equal outputs.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	// Close flushes the final block and writes the trailer
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
