package grman

import "fmt"

// Code is a response error code, modeled on the errno-style codes the
// original protocol reports in its "CODE:message" response suffix.
type Code string

const (
	// EINVAL marks malformed parameters, a dimension/format/size mismatch,
	// a bad action letter, or unsupported compression.
	EINVAL Code = "EINVAL"
	// EBADF marks a filesystem or mmap failure while acquiring a payload.
	EBADF Code = "EBADF"
	// ENOMEM marks an allocation failure for a staging buffer.
	ENOMEM Code = "ENOMEM"
	// ENODATA marks a decoded payload shorter than required.
	ENODATA Code = "ENODATA"
	// EFBIG marks a payload exceeding the per-image ceiling.
	EFBIG Code = "EFBIG"
	// EILSEQ marks a follow-on chunk with no matching loading image.
	EILSEQ Code = "EILSEQ"
	// ENOENT marks a put/delete that references a missing image.
	ENOENT Code = "ENOENT"
)

// CommandError is the failure of a single command. It never propagates
// past the command that raised it — the caller gets it back as a
// formatted response string, not as a panic or process abort.
type CommandError struct {
	Code    Code
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CommandError) Unwrap() error { return e.Err }

func newError(code Code, format string, args ...any) *CommandError {
	return &CommandError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...any) *CommandError {
	return &CommandError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
