package grman

import (
	"math"
	"sort"
)

// belowTextZThreshold is the z-index below which a ref is drawn beneath
// the text layer rather than above it (spec.md §3 Invariants).
const belowTextZThreshold = math.MinInt32 / 2

// LayerParams is everything the Layer Builder needs from the renderer
// on a given frame: the caller owns scroll state, screen geometry, and
// the cell grid.
type LayerParams struct {
	ScrollOffset int32

	OriginX, OriginY float32 // NDC position of grid cell (0,0)'s corner
	DX, DY           float32 // per-cell NDC delta

	Cols, Rows uint32
	Cell       CellPixelSize
}

// UpdateLayers rebuilds the render list if the layer cache is dirty or
// the scroll offset changed since the last call, otherwise returns the
// cached list unchanged.
func (m *Manager) UpdateLayers(p LayerParams) []RenderQuad {
	if !m.layersDirty && p.ScrollOffset == m.lastScrollOffset {
		return m.renderData
	}
	m.renderData = m.buildLayers(p)
	m.layersDirty = false
	m.lastScrollOffset = p.ScrollOffset
	return m.renderData
}

// NumBelowRefs, NumNegativeRefs, and NumPositiveRefs report the z-index
// distribution tallied by the last UpdateLayers call.
func (m *Manager) NumBelowRefs() int    { return m.numBelowRefs }
func (m *Manager) NumNegativeRefs() int { return m.numNegativeRefs }
func (m *Manager) NumPositiveRefs() int { return m.numPositiveRefs }

func minMax(a, b float32) (lo, hi float32) {
	if a < b {
		return a, b
	}
	return b, a
}

func (m *Manager) buildLayers(p LayerParams) []RenderQuad {
	screenHeightPx := float32(p.Rows) * float32(p.Cell.Height)
	screenWidthPx := float32(p.Cols) * float32(p.Cell.Width)

	screenLo, screenHi := minMax(p.OriginY, p.OriginY+p.DY*float32(p.Rows))
	screenLeft, screenRight := minMax(p.OriginX, p.OriginX+p.DX*float32(p.Cols))

	quads := make([]RenderQuad, 0, len(m.images))
	m.numBelowRefs, m.numNegativeRefs, m.numPositiveRefs = 0, 0, 0

	for _, img := range m.images {
		for i := range img.refs {
			ref := &img.refs[i]

			switch {
			case ref.zIndex < belowTextZThreshold:
				m.numBelowRefs++
			case ref.zIndex < 0:
				m.numNegativeRefs++
			default:
				m.numPositiveRefs++
			}

			rowTop := p.OriginY + (float32(ref.startRow)+float32(ref.cellYOffset)/float32(p.Cell.Height))*p.DY
			var rowBottom float32
			if ref.numRows != 0 {
				rowBottom = rowTop + float32(ref.effectiveNumRows)*p.DY
			} else {
				rowBottom = rowTop + (float32(ref.srcHeight)/screenHeightPx)*p.DY*float32(p.Rows)
			}

			colLeft := p.OriginX + (float32(ref.startColumn)+float32(ref.cellXOffset)/float32(p.Cell.Width))*p.DX
			var colRight float32
			if ref.numCols != 0 {
				colRight = colLeft + float32(ref.effectiveNumCols)*p.DX
			} else {
				colRight = colLeft + (float32(ref.srcWidth)/screenWidthPx)*p.DX*float32(p.Cols)
			}

			quadLo, quadHi := minMax(rowTop, rowBottom)
			if quadHi < screenLo || quadLo > screenHi {
				continue
			}
			quadL, quadR := minMax(colLeft, colRight)
			if quadR < screenLeft || quadL > screenRight {
				continue
			}

			quads = append(quads, RenderQuad{
				Vertices: [4][4]float32{
					{ref.srcRect.right, ref.srcRect.top, colRight, rowTop},
					{ref.srcRect.right, ref.srcRect.bottom, colRight, rowBottom},
					{ref.srcRect.left, ref.srcRect.bottom, colLeft, rowBottom},
					{ref.srcRect.left, ref.srcRect.top, colLeft, rowTop},
				},
				ZIndex:    ref.zIndex,
				ImageID:   img.internalID,
				TextureID: img.textureID,
			})
		}
	}

	sort.SliceStable(quads, func(i, j int) bool {
		if quads[i].ZIndex != quads[j].ZIndex {
			return quads[i].ZIndex < quads[j].ZIndex
		}
		return quads[i].ImageID < quads[j].ImageID
	})

	for i := 0; i < len(quads); {
		j := i + 1
		for j < len(quads) && quads[j].ImageID == quads[i].ImageID {
			j++
		}
		quads[i].GroupCount = j - i
		i = j
	}

	return quads
}

// CenteredQuad returns a single quad presenting img centered on the
// full screen and scaled to fit entirely within it, aspect preserved.
// This supplements spec.md's distillation with the original
// implementation's splash-screen display mode
// (gpu_data_for_centered_image in graphics.c), not otherwise reachable
// through placement commands.
func CenteredQuad(img *Image, screenWidthPx, screenHeightPx float32) RenderQuad {
	imgAspect := float32(img.width) / float32(img.height)
	screenAspect := screenWidthPx / screenHeightPx

	halfW, halfH := float32(1), float32(1)
	if imgAspect > screenAspect {
		halfH = screenAspect / imgAspect
	} else {
		halfW = imgAspect / screenAspect
	}

	return RenderQuad{
		Vertices: [4][4]float32{
			{1, 0, halfW, halfH},
			{1, 1, halfW, -halfH},
			{0, 1, -halfW, -halfH},
			{0, 0, -halfW, halfH},
		},
		ImageID:    img.internalID,
		TextureID:  img.textureID,
		GroupCount: 1,
	}
}
