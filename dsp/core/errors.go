package core

import "errors"

// Errors shared by every processing stage. Stages wrap them with context
// via fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	// ErrInvalidParameter reports a rejected setter or option value
	// (non-positive rate, negative depth, out-of-range gain).
	ErrInvalidParameter = errors.New("stonemistress: invalid parameter")

	// ErrNumericDomain reports a configuration under which a filter
	// coefficient could leave its stable range.
	ErrNumericDomain = errors.New("stonemistress: numeric domain violation")

	// ErrBufferSize reports a block larger than the prepared maximum or an
	// unsupported channel layout.
	ErrBufferSize = errors.New("stonemistress: buffer size violation")

	// ErrNotPrepared reports processing before Prepare or after Release.
	ErrNotPrepared = errors.New("stonemistress: processor not prepared")
)
