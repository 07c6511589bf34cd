package grman

// Cursor is the subset of the host terminal's cursor state this package
// reads and writes: the grid-cell position. Placement advances it; the
// host screen is responsible for clamping it to the visible grid.
type Cursor struct {
	X, Y int
}

// CellPixelSize is the pixel dimensions of one character cell, supplied
// by the host on every call that needs to convert between pixels and
// cells.
type CellPixelSize struct {
	Width, Height uint32
}
