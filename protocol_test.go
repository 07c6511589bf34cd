package grman

import "testing"

func TestParseCommand_ParsesKeyValuePairs(t *testing.T) {
	c, err := ParseCommand("a=T,f=32,i=5,s=2,v=2,m=1,z=-3", []byte("abcd"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Action != ActionTransmitDisplay {
		t.Errorf("expected action T, got %c", c.Action)
	}
	if c.Format != formatRGBA {
		t.Errorf("expected format 32, got %d", c.Format)
	}
	if c.ID != 5 || c.DataWidth != 2 || c.DataHeight != 2 {
		t.Errorf("expected i=5,s=2,v=2, got id=%d w=%d h=%d", c.ID, c.DataWidth, c.DataHeight)
	}
	if !c.More {
		t.Error("expected More true")
	}
	if c.ZIndex != -3 {
		t.Errorf("expected z=-3, got %d", c.ZIndex)
	}
	if c.PayloadSize != 4 {
		t.Errorf("expected payload size 4, got %d", c.PayloadSize)
	}
}

func TestParseCommand_DefaultsFormatToRGBA(t *testing.T) {
	c, err := ParseCommand("a=T", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Format != formatRGBA {
		t.Errorf("expected default format 32 (RGBA), got %d", c.Format)
	}
}

func TestParseCommand_IgnoresUnknownKeys(t *testing.T) {
	_, err := ParseCommand("a=T,Z9=1", nil)
	if err != nil {
		t.Errorf("expected unknown keys to be ignored, got %v", err)
	}
}

func TestParseCommand_RejectsMalformedPair(t *testing.T) {
	_, err := ParseCommand("a=T,garbage", nil)
	if err == nil {
		t.Fatal("expected an error for a pair with no '='")
	}
}

func TestFormatResponse_SuppressesWhenQuietAll(t *testing.T) {
	if got := FormatResponse(1, 0, 0, QuietAll, nil); got != "" {
		t.Errorf("expected suppressed response, got %q", got)
	}
}

func TestFormatResponse_SuppressesSuccessWhenQuietSuccess(t *testing.T) {
	if got := FormatResponse(1, 0, 0, QuietSuccess, nil); got != "" {
		t.Errorf("expected success suppressed, got %q", got)
	}
	got := FormatResponse(1, 0, 0, QuietSuccess, newError(EINVAL, "bad"))
	if got != "Gi=1;EINVAL:bad" {
		t.Errorf("expected error to still report under QuietSuccess, got %q", got)
	}
}

func TestFormatResponse_SuppressesWithNoIDOrNumber(t *testing.T) {
	got := FormatResponse(0, 0, 0, QuietNone, newError(EINVAL, "bad"))
	if got != "" {
		t.Errorf("expected suppressed response with no id/number, got %q", got)
	}
}

func TestFormatResponse_IncludesPlacementID(t *testing.T) {
	got := FormatResponse(1, 0, 7, QuietNone, nil)
	if got != "Gi=1,p=7;OK" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestFormatResponse_WrapsPlainErrorsAsEINVAL(t *testing.T) {
	got := FormatResponse(1, 0, 0, QuietNone, errUnwrapped{"boom"})
	if got != "Gi=1;EINVAL:boom" {
		t.Errorf("unexpected response: %q", got)
	}
}

type errUnwrapped struct{ msg string }

func (e errUnwrapped) Error() string { return e.msg }
