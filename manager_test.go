package grman

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func rgba(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestHandleCommand_DirectRGBA(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action:    ActionTransmit,
		Format:    formatRGBA,
		ID:        5,
		DataWidth: 2, DataHeight: 2, DataSize: 16,
		Payload: rgba(16),
	}

	resp := m.HandleCommand(cmd, cursor, cell)
	if resp != "Gi=5;OK" {
		t.Errorf("expected Gi=5;OK, got %q", resp)
	}
	if m.ImageCount() != 1 {
		t.Errorf("expected 1 image, got %d", m.ImageCount())
	}
	if m.UsedStorage() != 16 {
		t.Errorf("expected 16 bytes used, got %d", m.UsedStorage())
	}
}

func TestHandleCommand_Chunked(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	first := &Command{
		Action: ActionTransmit, Format: formatRGBA, ID: 7,
		DataWidth: 2, DataHeight: 2, DataSize: 16, More: true, Quiet: QuietSuccess,
		Payload: rgba(8),
	}
	resp1 := m.HandleCommand(first, cursor, cell)
	if resp1 != "" {
		t.Errorf("expected suppressed intermediate response, got %q", resp1)
	}

	second := &Command{
		Action: ActionTransmit, More: false,
		Payload: rgba(8),
	}
	resp2 := m.HandleCommand(second, cursor, cell)
	if resp2 != "Gi=7;OK" {
		t.Errorf("expected Gi=7;OK, got %q", resp2)
	}
	if m.UsedStorage() != 16 {
		t.Errorf("expected 16 bytes used, got %d", m.UsedStorage())
	}
}

func TestHandleCommand_FollowOnWithoutLoad(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	// No load is in progress, so a bare continuation-shaped command (no
	// id/number) dispatches as a brand-new anonymous add, which fails
	// validation for lack of dimensions — not the same path as EILSEQ.
	cmd := &Command{Action: ActionTransmit, Format: formatRGBA, Payload: rgba(4)}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp != "" {
		t.Errorf("expected suppressed response for id-less command, got %q", resp)
	}
}

func TestHandleCommand_EILSEQOnStaleLoad(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	first := &Command{
		Action: ActionTransmit, Format: formatRGBA, ID: 1,
		DataWidth: 1, DataHeight: 1, More: true, Quiet: QuietAll,
		Payload: rgba(2),
	}
	m.HandleCommand(first, cursor, cell)

	// The image finishing the load is gone: simulate by clearing it
	// directly while leaving loadingImage pointed at it.
	m.removeImageAt(0)

	second := &Command{Payload: rgba(2), Quiet: QuietNone}
	resp := m.HandleCommand(second, cursor, cell)
	if resp != "" {
		t.Errorf("expected suppressed response (no id/number on a follow-on), got %q", resp)
	}
	if m.ImageCount() != 0 {
		t.Errorf("expected no resurrected image, got %d", m.ImageCount())
	}
}

func TestHandleCommand_RejectsBothIDAndNumber(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionTransmit, Format: formatRGBA,
		ID: 1, ImageNumber: 2, DataWidth: 1, DataHeight: 1,
		Payload: rgba(4),
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp != "Gi=1,I=2;EINVAL:both image id: 1 and image number: 2 specified" {
		t.Errorf("unexpected response: %q", resp)
	}
}

func TestHandleCommand_RejectsOversizeDimension(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionTransmit, Format: formatRGBA, ID: 1,
		DataWidth: 10001, DataHeight: 1,
		Payload: rgba(4),
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp == "" || resp[len("Gi=1;"):len("Gi=1;")+6] != "EINVAL" {
		t.Errorf("expected EINVAL response, got %q", resp)
	}
}

func TestHandleCommand_RejectsOversizePNG(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionTransmit, Format: formatPNG, ID: 1,
		DataSize: 400_000_001,
		Payload:  []byte{},
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp == "" {
		t.Fatal("expected a response")
	}
	if resp != "Gi=1;EINVAL:PNG payload too large: 400000001" {
		t.Errorf("unexpected response: %q", resp)
	}
}

func TestHandleCommand_RejectsZeroDimensionRGB(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionTransmit, Format: formatRGB, ID: 1,
		DataWidth: 0, DataHeight: 4,
		Payload: rgba(12),
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp != "Gi=1;EINVAL:zero width or height in image transmission" {
		t.Errorf("unexpected response: %q", resp)
	}
}

func TestHandleCommand_CompressedSizeMismatch(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(rgba(16))
	w.Close()

	cmd := &Command{
		Action: ActionTransmit, Format: formatRGBA, ID: 1,
		DataWidth: 2, DataHeight: 2, Compressed: 'z',
		DataSize: 999, // deliberately wrong
		Payload:  buf.Bytes(),
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if len(resp) < 6 || resp[len(resp)-len("EINVAL:image data size post inflation does not match expected size"):] != "EINVAL:image data size post inflation does not match expected size" {
		t.Errorf("unexpected response: %q", resp)
	}
}

func TestHandleCommand_ReplaceExistingClientID(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd1 := &Command{Action: ActionTransmit, Format: formatRGBA, ID: 3, DataWidth: 1, DataHeight: 1, DataSize: 4, Payload: rgba(4)}
	m.HandleCommand(cmd1, cursor, cell)
	first := m.ImageByClientID(3)
	firstInternal := first.internalID

	cmd2 := &Command{Action: ActionTransmit, Format: formatRGBA, ID: 3, DataWidth: 1, DataHeight: 1, DataSize: 4, Payload: rgba(4)}
	m.HandleCommand(cmd2, cursor, cell)

	if m.ImageCount() != 1 {
		t.Errorf("expected 1 image after re-add, got %d", m.ImageCount())
	}
	second := m.ImageByClientID(3)
	if second.internalID == firstInternal {
		t.Errorf("expected a new internal id on re-add")
	}
}

func TestHandleCommand_QueryNeverLeavesImageResident(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionQuery, Format: formatRGBA, ID: 42,
		DataWidth: 2, DataHeight: 2, DataSize: 16,
		Payload: rgba(16),
	}
	resp := m.HandleCommand(cmd, cursor, cell)
	if resp != "Gi=42;OK" {
		t.Errorf("expected Gi=42;OK correlated on the original id, got %q", resp)
	}
	if m.ImageCount() != 0 {
		t.Errorf("expected no image left resident after a query, got %d", m.ImageCount())
	}
	if m.UsedStorage() != 0 {
		t.Errorf("expected no storage counted after a query, got %d", m.UsedStorage())
	}
}

func TestHandleCommand_QueryDoesNotResetExistingImageWithSameID(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	add := &Command{
		Action: ActionTransmitDisplay, Format: formatRGBA, ID: 7,
		DataWidth: 1, DataHeight: 1, DataSize: 4, Payload: rgba(4),
	}
	m.HandleCommand(add, cursor, cell)
	resident := m.ImageByClientID(7)
	if resident == nil {
		t.Fatal("setup: expected the transmitted image to be resident")
	}
	originalInternalID := resident.internalID

	query := &Command{
		Action: ActionQuery, Format: formatRGBA, ID: 7,
		DataWidth: 1, DataHeight: 1, DataSize: 4, Payload: rgba(4),
	}
	resp := m.HandleCommand(query, cursor, cell)
	if resp != "Gi=7;OK" {
		t.Errorf("expected Gi=7;OK, got %q", resp)
	}

	still := m.ImageByClientID(7)
	if still == nil || still.internalID != originalInternalID {
		t.Errorf("expected the existing image with id 7 untouched by the query, got %+v", still)
	}
	if m.ImageCount() != 1 {
		t.Errorf("expected exactly the original image resident, got %d images", m.ImageCount())
	}
}

func TestHandleCommand_TransmitDisplayAdvancesCursor(t *testing.T) {
	m := NewManager()
	cursor := &Cursor{}
	cell := CellPixelSize{Width: 10, Height: 20}

	cmd := &Command{
		Action: ActionTransmitDisplay, Format: formatRGBA, ID: 9,
		DataWidth: 20, DataHeight: 20, DataSize: 20 * 20 * 4, // spans 2 cells wide, 1 cell tall
		Payload: rgba(20 * 20 * 4),
	}
	m.HandleCommand(cmd, cursor, cell)

	img := m.ImageByClientID(9)
	if img == nil || len(img.refs) != 1 {
		t.Fatalf("expected exactly one placement")
	}
	if cursor.X != 2 {
		t.Errorf("expected cursor.X == 2, got %d", cursor.X)
	}
}
