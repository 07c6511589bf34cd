package grman

// Scroll applies a plain (unmargined) scroll delta to every ref's grid
// row. A ref whose entire span has scrolled past limit is dropped.
func (m *Manager) Scroll(amt int32, limit int32) {
	for _, img := range m.images {
		kept := img.refs[:0]
		for _, ref := range img.refs {
			ref.startRow += amt
			if ref.startRow+int32(ref.effectiveNumRows) <= limit {
				continue
			}
			kept = append(kept, ref)
		}
		img.refs = kept
	}
	m.layersDirty = true
}

// ScrollWithMargins applies amt only to refs whose row span lies
// entirely within [marginTop, marginBottom) before the move. A ref that
// straddles either boundary after moving is clipped: its source
// sub-rect shrinks by whole cell-rows to match the rows still inside
// the margin, and it is dropped once the clip would consume its entire
// source height. A ref that ends up entirely outside the margin is
// dropped outright.
func (m *Manager) ScrollWithMargins(amt int32, marginTop, marginBottom int32, cell CellPixelSize) {
	for _, img := range m.images {
		kept := img.refs[:0]
		for _, ref := range img.refs {
			top := ref.startRow
			bottom := ref.startRow + int32(ref.effectiveNumRows)
			if top < marginTop || bottom > marginBottom {
				kept = append(kept, ref)
				continue
			}

			ref.startRow += amt
			top = ref.startRow
			bottom = ref.startRow + int32(ref.effectiveNumRows)

			if bottom <= marginTop || top >= marginBottom {
				continue
			}

			if top < marginTop {
				clipped := uint32(marginTop - top)
				if clipped >= ref.effectiveNumRows {
					continue
				}
				ref.srcY += clipped * cell.Height
				ref.srcHeight = subClampU32(ref.srcHeight, clipped*cell.Height)
				ref.effectiveNumRows -= clipped
				ref.startRow = marginTop
				bottom = ref.startRow + int32(ref.effectiveNumRows)
			}
			if bottom > marginBottom {
				clipped := uint32(bottom - marginBottom)
				if clipped >= ref.effectiveNumRows {
					continue
				}
				ref.srcHeight = subClampU32(ref.srcHeight, clipped*cell.Height)
				ref.effectiveNumRows -= clipped
			}
			if ref.effectiveNumRows == 0 || ref.srcHeight == 0 {
				continue
			}

			updateSrcRect(&ref, img)
			kept = append(kept, ref)
		}
		img.refs = kept
	}
	m.layersDirty = true
}

func subClampU32(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

// Clear removes every ref (all==true) or just the refs that have
// scrolled entirely above row 0.
func (m *Manager) Clear(all bool) {
	if all {
		m.filterAllRefs(func(*Image, *imageRef) bool { return true }, true)
	} else {
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return ref.startRow+int32(ref.effectiveNumRows) <= 0
		}, true)
	}
	m.layersDirty = true
}

func isUpperDeleteAction(a DeleteAction) bool {
	return a >= 'A' && a <= 'Z'
}

// xFilter reports whether the 1-based column xOffset lands inside ref's
// column span.
func xFilter(ref *imageRef, xOffset uint32) bool {
	if xOffset == 0 {
		return false
	}
	x := int32(xOffset) - 1
	return x >= ref.startColumn && x < ref.startColumn+int32(ref.effectiveNumCols)
}

// yFilter reports whether the 1-based row yOffset lands inside ref's row
// span. Deliberately built the same shape as xFilter: the original
// implementation's y_filter_func casts to int32 around the wrong
// sub-expression of this comparison, making it asymmetric with
// x_filter_func (spec.md §9 Open Questions); this version does not
// reproduce that.
func yFilter(ref *imageRef, yOffset uint32) bool {
	if yOffset == 0 {
		return false
	}
	y := int32(yOffset) - 1
	return y >= ref.startRow && y < ref.startRow+int32(ref.effectiveNumRows)
}

func pointFilter(ref *imageRef, xOffset, yOffset uint32) bool {
	return xFilter(ref, xOffset) && yFilter(ref, yOffset)
}

// deleteRefs dispatches a delete command's action letter to the
// matching selection predicate and removes every ref (and, for
// upper-case actions, the owning image once its ref list is empty) that
// the predicate selects.
func (m *Manager) deleteRefs(c *Command, cursor *Cursor) {
	withData := isUpperDeleteAction(c.DeleteAction)

	switch c.DeleteAction {
	case DeleteAll, DeleteAllWithData:
		m.filterAllRefs(func(*Image, *imageRef) bool { return true }, withData)

	case DeleteByID, DeleteByIDWithData:
		target := m.imageByClientID(c.ID)
		m.filterImageRefs(target, func(_ *Image, ref *imageRef) bool {
			return c.PlacementID == 0 || ref.clientID == c.PlacementID
		}, withData)

	case DeleteByNumber, DeleteByNumberData:
		target := m.imageByClientNumber(c.ImageNumber)
		m.filterImageRefs(target, func(_ *Image, _ *imageRef) bool { return true }, withData)

	case DeleteAtPoint, DeleteAtPointData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return pointFilter(ref, c.XOffset, c.YOffset)
		}, withData)

	case DeleteAtPoint3D, DeleteAtPoint3DData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return pointFilter(ref, c.XOffset, c.YOffset) && ref.zIndex == c.ZIndex
		}, withData)

	case DeleteByColumn, DeleteByColumnData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return xFilter(ref, c.XOffset)
		}, withData)

	case DeleteByRow, DeleteByRowData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return yFilter(ref, c.YOffset)
		}, withData)

	case DeleteByZIndex, DeleteByZIndexData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return ref.zIndex == c.ZIndex
		}, withData)

	case DeleteAtCursor, DeleteAtCursorData:
		m.filterAllRefs(func(_ *Image, ref *imageRef) bool {
			return xFilter(ref, uint32(cursor.X)+1) && yFilter(ref, uint32(cursor.Y)+1)
		}, withData)
		// Explicit break: this must not fall through into DeleteByNumber's
		// case, unlike the source this is grounded on (spec.md §9 Open
		// Questions).

	default:
		m.logger.Errorf("unknown delete action: %c", c.DeleteAction)
	}
}

func (m *Manager) filterAllRefs(pred func(*Image, *imageRef) bool, withData bool) {
	for i := len(m.images) - 1; i >= 0; i-- {
		m.filterOneImageRefs(i, pred, withData)
	}
}

func (m *Manager) filterImageRefs(img *Image, pred func(*Image, *imageRef) bool, withData bool) {
	if img == nil {
		return
	}
	for i, candidate := range m.images {
		if candidate == img {
			m.filterOneImageRefs(i, pred, withData)
			return
		}
	}
}

func (m *Manager) filterOneImageRefs(index int, pred func(*Image, *imageRef) bool, withData bool) {
	img := m.images[index]
	kept := img.refs[:0]
	for _, ref := range img.refs {
		if pred(img, &ref) {
			continue
		}
		kept = append(kept, ref)
	}
	img.refs = kept

	// A refcount of zero frees the image outright once the delete action
	// was upper-case (withData) or the image never had a client id to
	// begin with — matching by id/number and finding zero refs already
	// is reason enough to free it; no ref needed to have been removed
	// by this very call.
	if len(img.refs) == 0 && (img.clientID == 0 || withData) {
		m.removeImageAt(index)
	}
}
