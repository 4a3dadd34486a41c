package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0},
		[]byte("hello"),
		{0xff, 0x00, 0x80, 0x7f, 0x01},
		bytes.Repeat([]byte{0xab, 0xcd}, 1000),
	}
	for _, d := range cases {
		out, err := DecodeBase64(EncodeBase64(d))
		require.NoError(t, err)
		assert.Equal(t, []byte(d), append([]byte{}, out...))
	}
}

func TestDecodeBase64Invalid(t *testing.T) {
	_, err := DecodeBase64("!!! not base64 !!!")
	assert.Error(t, err)
}

func TestCompressRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{42},
		[]byte("hello"),
		bytes.Repeat([]byte("abcdefgh"), 4096),
		{0xde, 0xad, 0xbe, 0xef},
	}
	for _, d := range cases {
		packed := Compress(d)
		out, err := Decompress(packed)
		require.NoError(t, err)
		assert.Equal(t, d, out)
	}
}

func TestCompressHeaderCarriesSize(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 300)
	packed := Compress(data)
	require.GreaterOrEqual(t, len(packed), 4)
	// little-endian uint32 prefix
	got := uint32(packed[0]) | uint32(packed[1])<<8 | uint32(packed[2])<<16 | uint32(packed[3])<<24
	assert.Equal(t, uint32(300), got)
}

func TestDecompressTruncated(t *testing.T) {
	_, err := Decompress([]byte{1, 0})
	assert.Error(t, err)
}

func TestCompressTextRoundTrip(t *testing.T) {
	s, err := DecompressText(CompressText("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = DecompressText(CompressText(""))
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestConfigDefaults(t *testing.T) {
	c := AppConfig{}.WithDefaults()
	assert.Equal(t, 1280, c.Width)
	assert.Equal(t, 720, c.Height)
	assert.Equal(t, 2048, c.ShadowResolution)
	assert.Equal(t, c.Width, c.Res3DWidth)
	assert.NotZero(t, c.Flags&FlagVSync)

	// Explicit fields survive
	c2 := AppConfig{Width: 640, Height: 360, Res3DWidth: 320, Res3DHeight: 180}.WithDefaults()
	assert.Equal(t, 640, c2.Width)
	assert.Equal(t, 320, c2.Res3DWidth)
	assert.Equal(t, 180, c2.Res3DHeight)
}
