package grman

import "time"

// format identifies the wire pixel format of a transmitted image.
type format uint32

const (
	formatRGB  format = 24
	formatRGBA format = 32
	formatPNG  format = 100
)

// transmission identifies how a payload's bytes are delivered.
type transmission byte

const (
	transmissionDirect   transmission = 'd'
	transmissionFile     transmission = 'f'
	transmissionTempFile transmission = 't'
	transmissionSharedMem transmission = 's'
)

// payloadSource is the tagged union the design notes call for: a
// LoadData's pixel bytes live either in an owned buffer or in a mapped
// region, never both at once.
type payloadSource struct {
	buf     []byte // owned buffer: inline chunks or a decoded result
	mapped  []byte // mmap'd region backing a file/temp-file/shm transmission
	mapFile *mappedFile
}

// bytes returns whichever source currently holds data, or nil if neither
// does.
func (p *payloadSource) bytes() []byte {
	if p.buf != nil {
		return p.buf
	}
	return p.mapped
}

func (p *payloadSource) len() int {
	if p.buf != nil {
		return len(p.buf)
	}
	return len(p.mapped)
}

// release frees whichever resource is held. Mapped regions are unmapped;
// owned buffers are simply dropped for the GC to reclaim.
func (p *payloadSource) release() {
	if p.mapFile != nil {
		p.mapFile.close()
		p.mapFile = nil
	}
	p.buf = nil
	p.mapped = nil
}

// loadData is the transient payload staging area described in the data
// model: it exists between the first chunk of a transmission and the GPU
// upload, after which it is released.
type loadData struct {
	src payloadSource

	dataSize       uint64 // expected decoded byte count
	isOpaque       bool   // true for RGB (no alpha channel)
	is4ByteAligned bool   // true when rows are a multiple of 4 bytes
}

// imageRef is one on-screen placement of an image: the specification's
// "ImageRef" / "Placement".
type imageRef struct {
	clientID uint32 // placement id, scoped within the owning image

	startRow, startColumn int32

	srcX, srcY, srcWidth, srcHeight uint32
	cellXOffset, cellYOffset        uint32

	numCols, numRows                   uint32 // as requested (0 = derive)
	effectiveNumCols, effectiveNumRows uint32 // resolved span

	zIndex int32

	srcRect uvRect // normalized [0,1] UV rectangle derived from src*
}

// uvRect is a normalized texture-coordinate rectangle with the origin at
// the image's top-left corner.
type uvRect struct {
	left, top, right, bottom float32
}

// Image is a decoded bitmap the manager holds, optionally resident on
// the GPU as a texture.
type Image struct {
	internalID    uint64 // monotonic, process-unique
	clientID      uint32 // protocol-level id chosen by the sender, 0 if none
	clientNumber  uint32 // protocol-level number, looked up by newest match

	width, height uint32
	textureID     uint32 // opaque GPU handle, 0 if not yet uploaded

	atime time.Time // last access: creation, re-use, or placement

	usedStorage uint64 // bytes counted against the quota
	dataLoaded  bool   // true once the payload is fully assembled and validated

	load loadData
	refs []imageRef
}

// RenderQuad is one visible textured quad: the specification's
// "ImageRenderData". Vertices are given in the order top-right,
// bottom-right, bottom-left, top-left, each as (u, v, x, y).
type RenderQuad struct {
	Vertices [4][4]float32

	ZIndex    int32
	ImageID   uint64
	TextureID uint32

	// GroupCount is set on the first quad of a contiguous same-image run
	// (the run length) and 0 on every follower, letting a renderer batch
	// draw calls per image without a separate pass.
	GroupCount int
}
