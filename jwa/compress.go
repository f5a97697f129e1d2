package jwa

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// deflateMaxOutput bounds decompression output to defend against a
// compact serialization engineered to expand into an unreasonable
// amount of memory (a "zip bomb" over the "zip" header).
const deflateMaxOutput = 10 * 1024 * 1024

// deflateAlgorithm implements "zip": "DEF" (RFC 7516 section 4.1.3),
// raw DEFLATE per RFC 1951.
type deflateAlgorithm struct{}

func init() {
	registerCompressionAlgorithm(deflateAlgorithm{})
}

func (deflateAlgorithm) Name() string { return ZipDEF }

func (deflateAlgorithm) Compress(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflateAlgorithm) Decompress(compressed []byte, maxOutputSize int) ([]byte, error) {
	if maxOutputSize <= 0 {
		maxOutputSize = deflateMaxOutput
	}
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	limited := io.LimitReader(r, int64(maxOutputSize)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > maxOutputSize {
		return nil, fmt.Errorf("jwa: decompressed payload exceeds %d byte ceiling", maxOutputSize)
	}
	return out, nil
}
