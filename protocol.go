package grman

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseCommand parses the wire key=value control-data form of a graphics
// command, `Gk=v,k=v,...;payload` with the leading `G` already stripped
// by the escape-sequence layer, followed by a base64-free raw payload
// (the caller is responsible for any base64 decoding the transport
// applies). This is a convenience adjunct, not part of the core dispatch
// contract: Manager.HandleCommand takes an already-populated *Command.
func ParseCommand(controlData string, payload []byte) (*Command, error) {
	c := &Command{Format: formatRGBA, Payload: payload}

	for _, pair := range strings.Split(controlData, ",") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, newError(EINVAL, "malformed control data pair: %q", pair)
		}
		key, value := kv[0], kv[1]

		switch key {
		case "a":
			if len(value) != 1 {
				return nil, newError(EINVAL, "invalid action: %q", value)
			}
			c.Action = Action(value[0])
		case "d":
			if len(value) != 1 {
				return nil, newError(EINVAL, "invalid delete action: %q", value)
			}
			c.DeleteAction = DeleteAction(value[0])
		case "t":
			if len(value) != 1 {
				return nil, newError(EINVAL, "invalid transmission type: %q", value)
			}
			c.Transmission = transmission(value[0])
		case "f":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, newError(EINVAL, "invalid format: %q", value)
			}
			c.Format = format(n)
		case "o":
			if len(value) != 1 {
				return nil, newError(EINVAL, "invalid compression: %q", value)
			}
			c.Compressed = value[0]
		case "m":
			c.More = value == "1"
		case "q":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, newError(EINVAL, "invalid quiet level: %q", value)
			}
			c.Quiet = Quiet(n)
		case "i":
			c.ID = parseU32(value)
		case "I":
			c.ImageNumber = parseU32(value)
		case "p":
			c.PlacementID = parseU32(value)
		case "S":
			c.DataSize = parseU64(value)
		case "O":
			c.DataOffset = parseU64(value)
		case "s":
			c.DataWidth = parseU32(value)
		case "v":
			c.DataHeight = parseU32(value)
		case "x":
			c.XOffset = parseU32(value)
		case "y":
			c.YOffset = parseU32(value)
		case "w":
			c.Width = parseU32(value)
		case "h":
			c.Height = parseU32(value)
		case "c":
			c.NumCells = parseU32(value)
		case "r":
			c.NumLines = parseU32(value)
		case "X":
			c.CellXOffset = parseU32(value)
		case "Y":
			c.CellYOffset = parseU32(value)
		case "z":
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, newError(EINVAL, "invalid z-index: %q", value)
			}
			c.ZIndex = int32(n)
		case "U":
			// unicode placeholder hint: accepted, not modeled.
		default:
			// Unknown keys are ignored, matching the original protocol's
			// forward-compatibility stance.
		}
	}

	c.PayloadSize = uint32(len(payload))
	return c, nil
}

func parseU32(s string) uint32 {
	n, _ := strconv.ParseUint(s, 10, 32)
	return uint32(n)
}

func parseU64(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

// FormatResponse builds the `G<k=v,...>;<OK|CODE:message>` response
// string for a completed command, applying the quiet-level suppression
// rules from spec.md §4.9.
func FormatResponse(id, number, placementID uint32, quiet Quiet, err error) string {
	if quiet == QuietAll {
		return ""
	}
	if err == nil && quiet >= QuietSuccess {
		return ""
	}
	if id == 0 && number == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('G')
	first := true
	write := func(k byte, v uint32) {
		if v == 0 {
			return
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, "%c=%d", k, v)
	}
	write('i', id)
	write('I', number)
	write('p', placementID)
	b.WriteByte(';')

	if err == nil {
		b.WriteString("OK")
		return b.String()
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		fmt.Fprintf(&b, "%s:%s", ce.Code, ce.Message)
	} else {
		fmt.Fprintf(&b, "%s:%s", EINVAL, err.Error())
	}
	return b.String()
}
