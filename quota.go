package grman

import "sort"

// StorageLimit is the default total resident-image byte budget (320 MiB),
// matching the specification's fixed quota.
const StorageLimit = 320 * 1024 * 1024

// trimUnreferenced reports whether img should be removed by the
// trim-unreferenced pass: its data never loaded, or it has no
// placements.
func trimUnreferenced(img *Image) bool {
	return !img.dataLoaded || len(img.refs) == 0
}

// addTrimPredicate is the narrower pass run after a query ('q') command:
// an image is dropped only if it failed to load, or it has neither a
// client id nor any placements. The queried image itself never carries
// a client id, so a query never leaves its image resident.
func addTrimPredicate(img *Image) bool {
	return !img.dataLoaded || (img.clientID == 0 && len(img.refs) == 0)
}

// applyStorageQuota runs after every successful add other than a query
// (a query runs only addTrimPredicate). It first removes
// every image that never finished loading or carries no placements
// (except the one just added), then, if still over budget, evicts the
// least-recently-used images until back under budget.
func (m *Manager) applyStorageQuota(currentlyAddedInternalID uint64) {
	m.removeImages(currentlyAddedInternalID, trimUnreferenced)
	if m.usedStorage < m.storageLimit {
		return
	}

	sort.SliceStable(m.images, func(i, j int) bool {
		return m.images[i].atime.After(m.images[j].atime)
	})

	for m.usedStorage > m.storageLimit && len(m.images) > 0 {
		m.removeImageAt(len(m.images) - 1)
	}
	if len(m.images) == 0 {
		m.usedStorage = 0
	}
}
