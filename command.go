package grman

// Action selects what a Command does.
type Action byte

const (
	// ActionTransmit stores image data without displaying it.
	ActionTransmit Action = 't'
	// ActionTransmitDisplay stores image data, then places it immediately.
	ActionTransmitDisplay Action = 'T'
	// ActionQuery behaves like ActionTransmit but never leaves the image
	// resident; it exists to let a client probe protocol support.
	ActionQuery Action = 'q'
	// ActionPut places an already-transmitted image.
	ActionPut Action = 'p'
	// ActionDelete removes placements and/or images.
	ActionDelete Action = 'd'
)

// zeroAction is the implicit default action, equivalent to ActionTransmitDisplay.
const zeroAction Action = 0

// DeleteAction selects which placements/images a delete command targets.
// Lower case deletes only references; upper case also deletes the image
// once its reference list is empty.
type DeleteAction byte

const (
	DeleteAll           DeleteAction = 'a'
	DeleteAllWithData   DeleteAction = 'A'
	DeleteByID          DeleteAction = 'i'
	DeleteByIDWithData  DeleteAction = 'I'
	DeleteByNumber      DeleteAction = 'n'
	DeleteByNumberData  DeleteAction = 'N'
	DeleteAtPoint       DeleteAction = 'p'
	DeleteAtPointData   DeleteAction = 'P'
	DeleteAtPoint3D     DeleteAction = 'q'
	DeleteAtPoint3DData DeleteAction = 'Q'
	DeleteByColumn      DeleteAction = 'x'
	DeleteByColumnData  DeleteAction = 'X'
	DeleteByRow         DeleteAction = 'y'
	DeleteByRowData     DeleteAction = 'Y'
	DeleteByZIndex      DeleteAction = 'z'
	DeleteByZIndexData  DeleteAction = 'Z'
	DeleteAtCursor      DeleteAction = 'c'
	DeleteAtCursorData  DeleteAction = 'C'
)

// Quiet controls how much of a response is emitted.
type Quiet uint32

const (
	// QuietNone emits both success and error responses.
	QuietNone Quiet = 0
	// QuietSuccess suppresses success responses; errors still report.
	QuietSuccess Quiet = 1
	// QuietAll suppresses every response.
	QuietAll Quiet = 2
)

// Command is a single parsed protocol command, corresponding to
// spec.md's language-neutral "Command record". Manager.HandleCommand
// takes this directly — parsing the wire key=value form into a Command
// is a separate, optional concern (see protocol.go).
type Command struct {
	Action       Action
	DeleteAction DeleteAction
	Transmission transmission
	Format       format
	Compressed   byte // 'z' for zlib, 0 for none

	More  bool
	Quiet Quiet

	ID          uint32
	ImageNumber uint32
	PlacementID uint32

	DataSize   uint64
	DataOffset uint64
	DataWidth  uint32
	DataHeight uint32

	XOffset uint32
	YOffset uint32
	Width   uint32
	Height  uint32

	NumCells uint32
	NumLines uint32

	CellXOffset uint32
	CellYOffset uint32

	ZIndex int32

	PayloadSize uint32
	Payload     []byte
}
