package grman

import (
	"bytes"
	"compress/zlib"
	"io"
)

// inflateZlib decompresses an RFC 1950 (zlib-wrapped DEFLATE) payload.
// The decompressed length must equal expectedSize exactly; a shorter or
// longer result is a protocol error, not a partial success.
func inflateZlib(data []byte, expectedSize uint64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, wrapError(EINVAL, err, "failed to initialize inflate with error: %v", err)
	}
	defer r.Close()

	out := make([]byte, 0, expectedSize)
	buf := bytes.NewBuffer(out)
	n, err := io.CopyN(buf, r, int64(expectedSize)+1)
	if err != nil && err != io.EOF {
		return nil, wrapError(EINVAL, err, "failed to inflate image data with error: %v", err)
	}
	if uint64(n) != expectedSize {
		return nil, newError(EINVAL, "image data size post inflation does not match expected size")
	}
	return buf.Bytes(), nil
}

// decodePixels applies decompression (if any) and format decoding to a
// transmission's raw bytes, returning the final pixel bytes and,
// possibly revised, image dimensions. For PNG payloads the decoder's
// reported width/height override the ones from the command.
func decodePixels(c *Command, raw []byte, width, height uint32, decoder PNGDecoder) (pixels []byte, w, h uint32, err error) {
	data := raw
	if c.Compressed == 'z' {
		data, err = inflateZlib(data, c.DataSize)
		if err != nil {
			return nil, 0, 0, err
		}
	} else if c.Compressed != 0 {
		return nil, 0, 0, newError(EINVAL, "unknown image compression: %c", c.Compressed)
	}

	if c.Format == formatPNG {
		pixels, w, h, err := decoder.Decode(data)
		if err != nil {
			return nil, 0, 0, wrapError(EINVAL, err, "failed to decode PNG with error: %v", err)
		}
		return pixels, w, h, nil
	}

	return data, width, height, nil
}

// validateDecodedSize enforces the invariant that a loaded image's byte
// count matches its declared pixel format and dimensions exactly.
func validateDecodedSize(actualLen int, dataSize uint64, isOpaque bool, width, height uint32) error {
	if uint64(actualLen) < dataSize {
		return newError(ENODATA, "insufficient image data: %d < %d", actualLen, dataSize)
	}
	bpp := uint64(4)
	if isOpaque {
		bpp = 3
	}
	required := bpp * uint64(width) * uint64(height)
	if dataSize != required {
		return newError(EINVAL, "image dimensions: %dx%d do not match data size: %d, expected size: %d", width, height, dataSize, required)
	}
	return nil
}
