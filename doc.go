// Package grman is the image manager of a terminal emulator's inline
// graphics subsystem: the part that turns a stream of protocol commands
// into resident, decoded images, on-screen placements, and a sorted
// render list of textured quads.
//
// # Quick Start
//
//	mgr := grman.NewManager()
//	cursor := &grman.Cursor{}
//	cell := grman.CellPixelSize{Width: 10, Height: 20}
//
//	cmd := &grman.Command{
//		Action: grman.ActionTransmitDisplay,
//		Format: 32, // RGBA
//		ID:     5,
//		DataWidth: 2, DataHeight: 2,
//		Payload: pixels, // 16 bytes of RGBA
//	}
//	resp := mgr.HandleCommand(cmd, cursor, cell)
//
// # Architecture
//
// A [Manager] owns every resident [Image], the in-progress multi-chunk
// load, and a cached render list:
//
//   - [Command]: an already-parsed protocol command; [Manager.HandleCommand]
//     is the single entry point that dispatches on its Action.
//   - [Image]: a decoded bitmap, optionally uploaded to the GPU as a
//     texture, holding an ordered list of placements.
//   - Placements (unexported imageRef): grid-anchored appearances of an
//     image with a source sub-rectangle, cell offsets, and a z-index.
//   - [RenderQuad]: one visible textured quad in normalized device
//     coordinates, produced on demand by [Manager.UpdateLayers].
//
// # Collaborators
//
// The manager never touches the GPU, the filesystem beyond payload
// acquisition, or PNG decoding directly — those are injected as
// interfaces with no-op or standard-library-backed defaults, configured
// with functional options:
//
//	mgr := grman.NewManager(
//		grman.WithGPUUploader(myUploader),
//		grman.WithStorageLimit(64 * 1024 * 1024),
//		grman.WithClock(myClock),
//	)
//
// See [GPUUploader], [PNGDecoder], [Clock], [TempFileScheduler], and
// [Logger].
//
// # Storage Quota
//
// Every successful transmission other than a query is followed by a two-phase eviction
// pass: images with no placements or that never finished loading are
// dropped first, then the least-recently-used images are evicted until
// resident storage is back under [StorageLimit] (320 MiB by default).
//
// # Wire Protocol Adjunct
//
// [ParseCommand] and [FormatResponse] convert between the manager's
// [Command]/response-string forms and the `G<k=v,...>;<payload>` /
// `G<k=v,...>;<OK|CODE:message>` wire forms of the underlying protocol.
// They are a convenience, not part of the core dispatch contract:
// [Manager.HandleCommand] always takes an already-populated [Command].
package grman
