package main

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression is the input compression of a file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect guesses the compression from the first bytes of a stream.  javabin
// itself always starts with its version byte, 0x02, so neither magic number
// can be mistaken for raw input.
func Detect(source []byte) Compression {
	switch {
	case bytes.HasPrefix(source, gzipMagic):
		return Gzip
	case bytes.HasPrefix(source, zstdMagic):
		return Zstd
	}
	return None
}

type readCloserWrapper struct {
	io.Reader
	closer func() error
}

func (r *readCloserWrapper) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

// decompressStream returns the decompressed content of r.  mode is one of
// auto, none, gzip or zstd.
func decompressStream(r io.Reader, mode string) (io.ReadCloser, Compression, error) {
	buf := bufio.NewReader(r)

	var c Compression
	switch mode {
	case "none":
		c = None
	case "gzip":
		c = Gzip
	case "zstd":
		c = Zstd
	default:
		bs, err := buf.Peek(len(zstdMagic))
		if err != nil && err != io.EOF {
			return nil, None, errors.Wrap(err, "detecting compression")
		}
		c = Detect(bs)
	}

	switch c {
	case Gzip:
		gzReader, err := gzip.NewReader(buf)
		if err != nil {
			return nil, c, errors.Wrap(err, "opening gzip stream")
		}
		return gzReader, c, nil
	case Zstd:
		zstdReader, err := zstd.NewReader(buf)
		if err != nil {
			return nil, c, errors.Wrap(err, "opening zstd stream")
		}
		return &readCloserWrapper{
			Reader: zstdReader,
			closer: func() error {
				zstdReader.Close()
				return nil
			},
		}, c, nil
	}
	return &readCloserWrapper{Reader: buf}, None, nil
}
