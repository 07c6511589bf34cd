package grman

import (
	"bytes"
	"image"
	"image/png"
	"time"
)

// Clock provides the monotonic timestamps used for LRU eviction ordering.
// Tests inject a fake clock; production code uses the default, backed by
// [time.Now].
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by the runtime monotonic clock
// that [time.Time] carries internally.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// GPUUploader is the external collaborator that owns texture memory. The
// manager calls Upload once per successfully decoded image and Free when
// an image is evicted or deleted; it never touches GPU state itself.
type GPUUploader interface {
	// Upload sends decoded pixels to the GPU and returns an opaque texture
	// handle (0 means "not uploaded").
	Upload(pixels []byte, width, height uint32, isOpaque, is4ByteAligned bool) uint32
	// Free releases a texture previously returned by Upload.
	Free(textureID uint32)
}

// NoopGPUUploader discards uploads and never assigns a texture id. Useful
// for headless tests that only exercise storage accounting, matching how
// the original implementation's own test suite disables GPU upload.
type NoopGPUUploader struct{}

func (NoopGPUUploader) Upload(_ []byte, _, _ uint32, _, _ bool) uint32 { return 0 }
func (NoopGPUUploader) Free(uint32)                                   {}

// PNGDecoder decodes a PNG payload into interleaved RGBA pixel bytes
// (4 per pixel; the manager rejects any other length), width, and
// height. It is the "external inner routine" the
// specification calls inflate_png_inner — modeled as an injectable
// collaborator so a host can swap in a hardened or accelerated decoder.
type PNGDecoder interface {
	Decode(buf []byte) (pixels []byte, width, height uint32, err error)
}

// stdlibPNGDecoder decodes PNG payloads with the standard library's
// image/png package, always producing RGBA output.
type stdlibPNGDecoder struct{}

func (stdlibPNGDecoder) Decode(buf []byte) ([]byte, uint32, uint32, error) {
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	rgba, ok := img.(*image.RGBA)
	if ok && rgba.Stride == int(width)*4 {
		return rgba.Pix, width, height, nil
	}
	pix := make([]byte, int(width)*int(height)*4)
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*int(width) + x) * 4
			pix[off+0] = uint8(r >> 8)
			pix[off+1] = uint8(g >> 8)
			pix[off+2] = uint8(b >> 8)
			pix[off+3] = uint8(a >> 8)
		}
	}
	return pix, width, height, nil
}

// TempFileScheduler schedules deletion of a transmitted temporary file
// after it has been mapped, preferring a host-coordinated "safe delete"
// over an immediate unlink so the host's event loop can serialize it
// against other filesystem activity.
type TempFileScheduler interface {
	// ScheduleDelete is called instead of an immediate unlink when a host
	// coordinator is present.
	ScheduleDelete(path string)
}

// NoopTempFileScheduler has no host coordinator; the acquirer falls back
// to an immediate unlink.
type NoopTempFileScheduler struct{}

func (NoopTempFileScheduler) ScheduleDelete(string) {}

// Logger reports non-fatal errors that have no command to attach a
// response to (e.g. an unrecognized action letter). It mirrors the
// original's REPORT_ERROR macro.
type Logger interface {
	Errorf(format string, args ...any)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Errorf(string, ...any) {}

var (
	_ Clock             = systemClock{}
	_ GPUUploader       = NoopGPUUploader{}
	_ PNGDecoder        = stdlibPNGDecoder{}
	_ TempFileScheduler = NoopTempFileScheduler{}
	_ Logger            = NoopLogger{}
)
