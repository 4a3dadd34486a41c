package core

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// EncodeBase64 returns the standard base64 encoding of data.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes a standard base64 string.
func DecodeBase64(s string) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return out, nil
}

// Compress deflates data and prepends a little-endian uint32 header with
// the uncompressed size.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))
	buf.Write(header[:])

	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Decompress inflates data produced by Compress and verifies the size
// recorded in the header.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decompress: truncated header (%d bytes)", len(data))
	}
	want := binary.LittleEndian.Uint32(data[:4])

	r := flate.NewReader(bytes.NewReader(data[4:]))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if uint32(len(out)) != want {
		return nil, fmt.Errorf("decompress: size mismatch, header says %d, got %d", want, len(out))
	}
	return out, nil
}

// CompressText compresses s including a terminating zero byte, matching the
// C-string convention of the wire format.
func CompressText(s string) []byte {
	raw := make([]byte, len(s)+1)
	copy(raw, s)
	return Compress(raw)
}

// DecompressText is the inverse of CompressText; the trailing zero byte is
// stripped from the returned string.
func DecompressText(data []byte) (string, error) {
	raw, err := Decompress(data)
	if err != nil {
		return "", err
	}
	if n := len(raw); n > 0 && raw[n-1] == 0 {
		raw = raw[:n-1]
	}
	return string(raw), nil
}
