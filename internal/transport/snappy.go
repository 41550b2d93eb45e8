package transport

import (
	"io"

	"github.com/golang/snappy"
	"google.golang.org/grpc/encoding"
)

// CompressorName is passed to grpc.UseCompressor by clients.
const CompressorName = "snappy"

func init() {
	encoding.RegisterCompressor(snappyCompressor{})
}

type snappyCompressor struct{}

func (snappyCompressor) Name() string { return CompressorName }

func (snappyCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

func (snappyCompressor) Decompress(r io.Reader) (io.Reader, error) {
	return snappy.NewReader(r), nil
}
