package grman

import "sort"

// imageByInternalID returns the image with the given internal id, or nil.
func (m *Manager) imageByInternalID(id uint64) *Image {
	for _, img := range m.images {
		if img.internalID == id {
			return img
		}
	}
	return nil
}

// imageByClientID returns the first image with the given nonzero client
// id, or nil. Client ids are unique among images, so "first" and "only"
// coincide in practice.
func (m *Manager) imageByClientID(id uint32) *Image {
	if id == 0 {
		return nil
	}
	for _, img := range m.images {
		if img.clientID == id {
			return img
		}
	}
	return nil
}

// imageByClientNumber returns the newest image with the given client
// number, scanning from the end of the store.
func (m *Manager) imageByClientNumber(number uint32) *Image {
	if number == 0 {
		return nil
	}
	for i := len(m.images) - 1; i >= 0; i-- {
		if m.images[i].clientNumber == number {
			return m.images[i]
		}
	}
	return nil
}

// freeClientID returns the smallest positive integer not currently used
// as a client id, determined by sorting the set of nonzero client ids
// and finding the first gap starting at 1.
func (m *Manager) freeClientID() uint32 {
	if len(m.images) == 0 {
		return 1
	}
	ids := make([]uint32, 0, len(m.images))
	for _, img := range m.images {
		if img.clientID != 0 {
			ids = append(ids, img.clientID)
		}
	}
	if len(ids) == 0 {
		return 1
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var prev uint32
	ans := uint32(1)
	for _, id := range ids {
		if id == prev {
			continue
		}
		prev = id
		if id != ans {
			break
		}
		ans = id + 1
	}
	return ans
}

// findOrCreateImage returns the existing image with client id id if one
// exists, reporting existing=true; otherwise it appends and returns a
// freshly zeroed image.
func (m *Manager) findOrCreateImage(id uint32) (img *Image, existing bool) {
	if id != 0 {
		if found := m.imageByClientID(id); found != nil {
			return found, true
		}
	}
	img = &Image{}
	m.images = append(m.images, img)
	return img, false
}

// freeImage releases every resource an image owns (texture, refs, load
// buffers) and subtracts its storage accounting.
func (m *Manager) freeImage(img *Image) {
	if img.textureID != 0 {
		m.gpu.Free(img.textureID)
		img.textureID = 0
	}
	img.refs = nil
	img.load.src.release()
	m.usedStorage -= img.usedStorage
}

// removeImageAt removes the image at index i, freeing its resources
// first.
func (m *Manager) removeImageAt(i int) {
	m.freeImage(m.images[i])
	m.images = append(m.images[:i], m.images[i+1:]...)
	m.layersDirty = true
}

// removeImages removes every image for which predicate returns true,
// except the one whose internal id is skipInternalID (0 matches no
// image, since internal ids start at 1).
func (m *Manager) removeImages(skipInternalID uint64, predicate func(*Image) bool) {
	for i := len(m.images) - 1; i >= 0; i-- {
		img := m.images[i]
		if img.internalID != skipInternalID && predicate(img) {
			m.removeImageAt(i)
		}
	}
}
