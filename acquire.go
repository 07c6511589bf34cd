package grman

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// maxFilenameLength bounds the UTF-8 filename payload of a file/temp-file/
// shared-memory transmission.
const maxFilenameLength = 2048

// maxDirectBytes bounds the total bytes a single direct transmission may
// accumulate across all its chunks.
const maxDirectBytes = 400_000_000

// shmDir is where this package looks for POSIX shared-memory objects. Go
// has no portable shm_open wrapper; POSIX shared memory on Linux is
// implemented as a tmpfs-backed file under this directory, which is where
// glibc's shm_open itself places it, so opening the path directly is
// equivalent and avoids cgo.
const shmDir = "/dev/shm"

// mappedFile owns a single mmap'd region backing a file, temp-file, or
// shared-memory transmission. region is the whole page-aligned mapping;
// data is the requested payload within it.
type mappedFile struct {
	region []byte
	data   []byte
}

func (m *mappedFile) close() {
	if m == nil || m.region == nil {
		return
	}
	_ = unix.Munmap(m.region)
	m.region = nil
	m.data = nil
}

// mmapFile opens path read-only with close-on-exec and maps sz bytes
// starting at offset (the whole file, if sz is 0).
func mmapFile(path string, offset, sz uint64) (*mappedFile, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, wrapError(EBADF, err, "failed to open file for graphics transmission with error: %v", err)
	}
	defer unix.Close(fd)

	if sz == 0 {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			return nil, wrapError(EBADF, err, "failed to fstat() the file with error: %v", err)
		}
		sz = uint64(st.Size) - offset
	}

	// mmap requires a page-aligned offset: map from the enclosing page
	// boundary and slice off the leading bytes.
	pageSize := uint64(os.Getpagesize())
	aligned := offset - offset%pageSize
	delta := offset - aligned
	region, err := unix.Mmap(fd, int64(aligned), int(sz+delta), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, wrapError(EBADF, err, "failed to map image file at offset: %d with size: %d with error: %v", offset, sz, err)
	}
	return &mappedFile{region: region, data: region[delta:]}, nil
}

// acquireDirect appends a direct-transmission chunk to the image's
// staging buffer.
func acquireDirect(img *Image, payload []byte) error {
	if uint64(len(img.load.src.buf)+len(payload)) > maxDirectBytes {
		return newError(EFBIG, "too much data")
	}
	img.load.src.buf = append(img.load.src.buf, payload...)
	return nil
}

// acquireFilePayload maps a regular-file transmission's payload.
func acquireFilePayload(img *Image, filename string, offset, sz uint64) error {
	mf, err := mmapFile(filename, offset, sz)
	if err != nil {
		return err
	}
	img.load.src.mapFile = mf
	img.load.src.mapped = mf.data
	return nil
}

// acquireTempFilePayload maps a temp-file transmission's payload, then
// arranges for the backing file to be removed: preferring the host's
// scheduled "safe delete" hook when one is configured, falling back to
// an immediate unlink otherwise.
func acquireTempFilePayload(img *Image, filename string, offset, sz uint64, sched TempFileScheduler) error {
	if err := acquireFilePayload(img, filename, offset, sz); err != nil {
		return err
	}
	if _, ok := sched.(NoopTempFileScheduler); ok {
		_ = os.Remove(filename)
	} else {
		sched.ScheduleDelete(filename)
	}
	return nil
}

// acquireSharedMemoryPayload maps a POSIX shared-memory transmission's
// payload and unlinks the shared-memory name once it is mapped.
func acquireSharedMemoryPayload(img *Image, name string, offset, sz uint64) error {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(shmDir, name)
	}
	if err := acquireFilePayload(img, path, offset, sz); err != nil {
		return err
	}
	_ = os.Remove(path)
	return nil
}

// validateFilename enforces the per-transmission filename length ceiling.
func validateFilename(payload []byte) error {
	if len(payload) > maxFilenameLength {
		return newError(EINVAL, "filename too long")
	}
	return nil
}
