package grman

// maxImageDimension bounds width and height, per side, for any
// transmitted image.
const maxImageDimension = 10_000

// Manager owns the full resident image set, the in-progress
// multi-chunk load, and the render-list cache. It is the image manager
// of a terminal's inline-graphics subsystem: every exported method
// corresponds to one of spec.md's component responsibilities, wired
// together as methods on this single type the way the original's
// GraphicsManager groups them as one C struct with free functions.
type Manager struct {
	images       []*Image
	usedStorage  uint64
	storageLimit uint64

	internalIDCounter uint64

	loadingImage      uint64
	loadingAction     Action
	loadingResponseID uint32
	lastInitCommand   *Command

	gpu               GPUUploader
	gpuUploadEnabled  bool
	pngDecoder        PNGDecoder
	clock             Clock
	tempFileScheduler TempFileScheduler
	logger            Logger

	layersDirty bool
	renderData  []RenderQuad

	lastScrollOffset int32

	numBelowRefs    int
	numNegativeRefs int
	numPositiveRefs int
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithGPUUploader injects the GPU texture collaborator. Defaults to
// NoopGPUUploader.
func WithGPUUploader(g GPUUploader) Option { return func(m *Manager) { m.gpu = g } }

// WithPNGDecoder injects the PNG-decode collaborator. Defaults to the
// standard library's image/png.
func WithPNGDecoder(d PNGDecoder) Option { return func(m *Manager) { m.pngDecoder = d } }

// WithClock injects the time source used for LRU atime bookkeeping.
// Defaults to the system clock.
func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

// WithTempFileScheduler injects the host hook used to delete transmitted
// temporary files. Defaults to an immediate unlink.
func WithTempFileScheduler(s TempFileScheduler) Option {
	return func(m *Manager) { m.tempFileScheduler = s }
}

// WithLogger injects the sink for errors that have no command to attach
// a response to. Defaults to discarding them.
func WithLogger(l Logger) Option { return func(m *Manager) { m.logger = l } }

// WithStorageLimit overrides the default 320 MiB storage budget. Tests
// use a small limit to exercise eviction without transmitting hundreds
// of megabytes of fixture data.
func WithStorageLimit(limit uint64) Option { return func(m *Manager) { m.storageLimit = limit } }

// WithGPUUpload toggles whether decoded images are actually handed to
// the GPUUploader. Disabling it lets a headless host (or a test)
// exercise storage accounting and eviction without a real uploader,
// mirroring the original implementation's own test suite disabling
// its send_to_gpu global.
func WithGPUUpload(enabled bool) Option { return func(m *Manager) { m.gpuUploadEnabled = enabled } }

// NewManager constructs a Manager with its defaults, then applies opts.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		storageLimit:      StorageLimit,
		gpu:               NoopGPUUploader{},
		gpuUploadEnabled:  true,
		pngDecoder:        stdlibPNGDecoder{},
		clock:             systemClock{},
		tempFileScheduler: NoopTempFileScheduler{},
		logger:            NoopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ImageCount reports the number of resident images.
func (m *Manager) ImageCount() int { return len(m.images) }

// UsedStorage reports the total bytes currently counted against the
// storage quota.
func (m *Manager) UsedStorage() uint64 { return m.usedStorage }

// ImageByClientID is a read-only introspection accessor, supplementing
// the original's pyimage_for_client_id Python boilerplate.
func (m *Manager) ImageByClientID(id uint32) *Image { return m.imageByClientID(id) }

// ImageByClientNumber is a read-only introspection accessor, analogous
// to ImageByClientID but keyed by the protocol-level client number.
func (m *Manager) ImageByClientNumber(number uint32) *Image { return m.imageByClientNumber(number) }

func (m *Manager) nextInternalID() uint64 {
	m.internalIDCounter++
	return m.internalIDCounter
}

// HandleCommand dispatches a single parsed command: the Command
// Dispatcher of spec.md §4.8. cursor and cell are supplied by the host
// screen on every call; HandleCommand reads and, for put/add-with-
// display, advances cursor's grid position.
func (m *Manager) HandleCommand(c *Command, cursor *Cursor, cell CellPixelSize) string {
	// A command carrying neither id nor number while a load is in
	// progress is a follow-on chunk: it resurrects the init command's
	// parameters rather than being dispatched on its own action letter.
	if m.loadingImage != 0 && c.ID == 0 && c.ImageNumber == 0 {
		return m.continueLoad(c, cursor, cell)
	}

	action := c.Action
	if action == zeroAction {
		action = ActionTransmitDisplay
	}

	switch action {
	case ActionTransmit, ActionTransmitDisplay, ActionQuery:
		return m.handleAdd(c, action, cursor, cell)
	case ActionPut:
		return m.handlePutCommand(c, cursor, cell)
	case ActionDelete:
		return m.handleDeleteCommand(c, cursor)
	default:
		m.logger.Errorf("unknown graphics command action: %c", action)
		return ""
	}
}

// continueLoad appends a follow-on chunk to the image named by
// loadingImage, resurrecting the original init command's control
// parameters and only updating more/quiet/payload from c. A follow-on
// arriving after its loading image has gone missing (e.g. evicted by
// an intervening command) fails with EILSEQ.
func (m *Manager) continueLoad(c *Command, cursor *Cursor, cell CellPixelSize) string {
	img := m.imageByInternalID(m.loadingImage)
	if img == nil {
		m.loadingImage = 0
		err := newError(EILSEQ, "image data chunk received with no corresponding image")
		m.logger.Errorf("%s", err)
		// Follow-on chunks carry neither id nor number, so the formatted
		// response is suppressed per spec.md §4.9; the Logger is this
		// command's only place to attach an error to.
		return m.respond(0, 0, 0, c.Quiet, err)
	}

	init := m.lastInitCommand
	init.More = c.More
	init.Quiet = c.Quiet
	init.PayloadSize = c.PayloadSize
	init.Payload = c.Payload

	return m.proceedWithAdd(init, img, m.loadingAction, cursor, cell, m.loadingResponseID)
}

func (m *Manager) respond(id, number, placementID uint32, quiet Quiet, err error) string {
	return FormatResponse(id, number, placementID, quiet, err)
}

func validateAddCommand(c *Command) error {
	if c.ID != 0 && c.ImageNumber != 0 {
		return newError(EINVAL, "both image id: %d and image number: %d specified", c.ID, c.ImageNumber)
	}
	if c.DataWidth > maxImageDimension || c.DataHeight > maxImageDimension {
		return newError(EINVAL, "image dimensions too large: %dx%d", c.DataWidth, c.DataHeight)
	}
	switch c.Format {
	case formatPNG:
		if c.DataSize > maxDirectBytes {
			return newError(EINVAL, "PNG payload too large: %d", c.DataSize)
		}
	case formatRGB, formatRGBA:
		if c.DataWidth == 0 || c.DataHeight == 0 {
			return newError(EINVAL, "zero width or height in image transmission")
		}
	default:
		return newError(EINVAL, "unknown image format: %d", c.Format)
	}
	return nil
}

// resetImage clears a re-used image's previous generation (texture,
// refs, load state) before it is re-populated by a fresh add, keeping
// its client id.
func (m *Manager) resetImage(img *Image) {
	if img.textureID != 0 {
		m.gpu.Free(img.textureID)
		img.textureID = 0
	}
	img.refs = nil
	img.load.src.release()
	img.load = loadData{}
	m.usedStorage -= img.usedStorage
	img.usedStorage = 0
	img.dataLoaded = false
	img.width, img.height = 0, 0
	m.layersDirty = true
}

// abortImage releases a failed or interrupted add's staging resources.
// The image itself is left in the store, data_loaded false, eligible
// for eviction on the next add's trim-unreferenced pass.
func (m *Manager) abortImage(img *Image) {
	img.load.src.release()
	img.dataLoaded = false
}

// handleAdd starts a brand-new transmission: a client id collision
// reuses and resets that image; otherwise (including a number-only
// command) a fresh slot is allocated. If
// a transmission was already in progress it is implicitly abandoned
// (spec.md §5), left resident with data_loaded false and eligible for
// the next trim-unreferenced pass.
//
// A query (ActionQuery) never touches an existing image by id, and the
// image it creates keeps client id 0: the command's id is used only to
// correlate the response, never to look up or brand a resident image
// (original_source/graphics.c:925-928 forces iid = 0 ahead of the
// equivalent of this function for exactly that reason).
func (m *Manager) handleAdd(c *Command, action Action, cursor *Cursor, cell CellPixelSize) string {
	m.loadingImage = 0

	if err := validateAddCommand(c); err != nil {
		return m.respond(c.ID, c.ImageNumber, 0, c.Quiet, err)
	}

	lookupID := c.ID
	if action == ActionQuery {
		lookupID = 0
	}

	img, wasExisting := m.findOrCreateImage(lookupID)
	if wasExisting {
		m.resetImage(img)
	}
	img.internalID = m.nextInternalID()

	responseID := c.ID
	if action != ActionQuery {
		if c.ID != 0 {
			img.clientID = c.ID
		} else if c.ImageNumber != 0 {
			img.clientID = m.freeClientID()
			img.clientNumber = c.ImageNumber
		}
		responseID = img.clientID
	}

	m.lastInitCommand = c
	m.loadingAction = action
	m.loadingResponseID = responseID

	return m.proceedWithAdd(c, img, action, cursor, cell, responseID)
}

// proceedWithAdd is the shared tail of both a fresh add and a
// follow-on chunk: acquire this chunk's payload, and, once the
// transmission is complete, decode, quota, and optionally place it.
// responseID is the id reported back to the client: img.clientID for
// every action except query, which reports the command's original id
// even though the queried image itself never carries a client id.
func (m *Manager) proceedWithAdd(c *Command, img *Image, action Action, cursor *Cursor, cell CellPixelSize, responseID uint32) string {
	img.atime = m.clock.Now()

	if err := m.acquirePayload(img, c); err != nil {
		m.abortImage(img)
		m.loadingImage = 0
		return m.respond(responseID, c.ImageNumber, 0, c.Quiet, err)
	}

	if c.More {
		m.loadingImage = img.internalID
		m.loadingAction = action
		return m.respond(responseID, c.ImageNumber, 0, c.Quiet, nil)
	}
	m.loadingImage = 0

	if err := m.finishLoad(img, c); err != nil {
		m.abortImage(img)
		return m.respond(responseID, c.ImageNumber, 0, c.Quiet, err)
	}

	if action == ActionQuery {
		// Skip id 0 matches no resident image (internal ids start at 1),
		// so the just-queried image — client id 0, no placements — is
		// never exempted from this pass: a query never stays resident.
		m.removeImages(0, addTrimPredicate)
	} else {
		m.applyStorageQuota(img.internalID)
	}

	if action == ActionTransmitDisplay {
		if _, err := handlePut(c, cursor, img, cell); err != nil {
			return m.respond(responseID, c.ImageNumber, 0, c.Quiet, err)
		}
		m.layersDirty = true
	}

	return m.respond(responseID, c.ImageNumber, 0, c.Quiet, nil)
}

func (m *Manager) acquirePayload(img *Image, c *Command) error {
	switch c.Transmission {
	case transmissionDirect, 0:
		return acquireDirect(img, c.Payload)
	case transmissionFile:
		if err := validateFilename(c.Payload); err != nil {
			return err
		}
		return acquireFilePayload(img, string(c.Payload), c.DataOffset, c.DataSize)
	case transmissionTempFile:
		if err := validateFilename(c.Payload); err != nil {
			return err
		}
		return acquireTempFilePayload(img, string(c.Payload), c.DataOffset, c.DataSize, m.tempFileScheduler)
	case transmissionSharedMem:
		if err := validateFilename(c.Payload); err != nil {
			return err
		}
		return acquireSharedMemoryPayload(img, string(c.Payload), c.DataOffset, c.DataSize)
	default:
		return newError(EINVAL, "unknown transmission type: %c", c.Transmission)
	}
}

func bytesPerPixel(isOpaque bool) uint32 {
	if isOpaque {
		return 3
	}
	return 4
}

func (m *Manager) finishLoad(img *Image, c *Command) error {
	raw := img.load.src.bytes()
	pixels, width, height, err := decodePixels(c, raw, c.DataWidth, c.DataHeight, m.pngDecoder)
	if err != nil {
		return err
	}

	isOpaque := c.Format == formatRGB
	expected := c.DataSize
	if c.Format == formatPNG {
		isOpaque = false
		expected = uint64(len(pixels))
	} else if expected == 0 {
		expected = uint64(bytesPerPixel(isOpaque)) * uint64(width) * uint64(height)
	}
	if err := validateDecodedSize(len(pixels), expected, isOpaque, width, height); err != nil {
		return err
	}

	img.width, img.height = width, height
	img.load.dataSize = uint64(len(pixels))
	img.load.isOpaque = isOpaque
	img.load.is4ByteAligned = (width*bytesPerPixel(isOpaque))%4 == 0

	if m.gpuUploadEnabled {
		img.textureID = m.gpu.Upload(pixels, width, height, isOpaque, img.load.is4ByteAligned)
	}
	img.usedStorage = uint64(len(pixels))
	m.usedStorage += img.usedStorage
	img.dataLoaded = true
	img.load.src.release()
	return nil
}

func (m *Manager) handlePutCommand(c *Command, cursor *Cursor, cell CellPixelSize) string {
	var img *Image
	if c.ID != 0 {
		img = m.imageByClientID(c.ID)
	} else if c.ImageNumber != 0 {
		img = m.imageByClientNumber(c.ImageNumber)
	}
	if img == nil {
		return m.respond(c.ID, c.ImageNumber, c.PlacementID, c.Quiet,
			newError(ENOENT, "put command refers to nonexistent image with id: %d, number: %d", c.ID, c.ImageNumber))
	}

	img.atime = m.clock.Now()
	if _, err := handlePut(c, cursor, img, cell); err != nil {
		return m.respond(img.clientID, c.ImageNumber, c.PlacementID, c.Quiet, err)
	}
	m.layersDirty = true
	return m.respond(img.clientID, c.ImageNumber, c.PlacementID, c.Quiet, nil)
}

func (m *Manager) handleDeleteCommand(c *Command, cursor *Cursor) string {
	m.deleteRefs(c, cursor)
	m.layersDirty = true
	return m.respond(c.ID, c.ImageNumber, c.PlacementID, c.Quiet, nil)
}
