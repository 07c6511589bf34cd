package grman

// updateSrcRect recomputes a ref's normalized [0,1] UV rectangle from its
// pixel-space source sub-rect and the owning image's dimensions.
func updateSrcRect(ref *imageRef, img *Image) {
	ref.srcRect.left = float32(ref.srcX) / float32(img.width)
	ref.srcRect.right = float32(ref.srcX+ref.srcWidth) / float32(img.width)
	ref.srcRect.top = float32(ref.srcY) / float32(img.height)
	ref.srcRect.bottom = float32(ref.srcY+ref.srcHeight) / float32(img.height)
}

// updateDestRect resolves a ref's effective cell span: the requested
// span if given, otherwise the source size rounded up to whole cells.
func updateDestRect(ref *imageRef, numCols, numRows uint32, cell CellPixelSize) {
	if numCols == 0 {
		t := ref.srcWidth + ref.cellXOffset
		numCols = t / cell.Width
		if t > numCols*cell.Width {
			numCols++
		}
	}
	if numRows == 0 {
		t := ref.srcHeight + ref.cellYOffset
		numRows = t / cell.Height
		if t > numRows*cell.Height {
			numRows++
		}
	}
	ref.effectiveNumRows = numRows
	ref.effectiveNumCols = numCols
}

// handlePut attaches or updates a placement for img, advances the
// cursor, and returns the image's client id (0 if it has none) for
// response correlation.
func handlePut(c *Command, cursor *Cursor, img *Image, cell CellPixelSize) (uint32, error) {
	if !img.dataLoaded {
		return img.clientID, newError(ENOENT, "put command refers to image with id: %d that could not load its data", c.ID)
	}

	var ref *imageRef
	if c.PlacementID != 0 && img.clientID != 0 {
		for i := range img.refs {
			if img.refs[i].clientID == c.PlacementID {
				ref = &img.refs[i]
				break
			}
		}
	}
	if ref == nil {
		img.refs = append(img.refs, imageRef{})
		ref = &img.refs[len(img.refs)-1]
	}

	srcWidth := c.Width
	if srcWidth == 0 {
		srcWidth = img.width
	}
	srcHeight := c.Height
	if srcHeight == 0 {
		srcHeight = img.height
	}

	ref.srcX, ref.srcY = c.XOffset, c.YOffset
	ref.srcWidth = min32(srcWidth, img.width-min32(img.width, ref.srcX))
	ref.srcHeight = min32(srcHeight, img.height-min32(img.height, ref.srcY))
	ref.zIndex = c.ZIndex
	ref.startRow, ref.startColumn = int32(cursor.Y), int32(cursor.X)
	ref.cellXOffset = min32(c.CellXOffset, cell.Width-1)
	ref.cellYOffset = min32(c.CellYOffset, cell.Height-1)
	ref.numCols, ref.numRows = c.NumCells, c.NumLines
	if img.clientID != 0 {
		ref.clientID = c.PlacementID
	}

	updateSrcRect(ref, img)
	updateDestRect(ref, c.NumCells, c.NumLines, cell)

	// Move the cursor; the host screen clamps it to the visible grid.
	cursor.X += int(ref.effectiveNumCols)
	cursor.Y += int(ref.effectiveNumRows) - 1

	return img.clientID, nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
