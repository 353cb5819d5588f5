// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Decoders wrap them with fmt.Errorf("%w ...") to add
// offsets and lengths; callers match with errors.Is.
var (
	// Buffer errors
	ErrBufferUnderrun = errors.New("dissect: buffer underrun")
	ErrInvalidLength  = errors.New("dissect: invalid length field")

	// Attribute decoding (non-fatal ones are attached as warnings)
	ErrReservedBits     = errors.New("dissect: reserved bits set")
	ErrBadValueLength   = errors.New("dissect: value length does not match type")
	ErrUnknownAttribute = errors.New("dissect: unknown attribute")
	ErrUnknownVendor    = errors.New("dissect: unknown vendor")
	ErrUnsupportedProto = errors.New("dissect: unsupported protocol")

	// Dictionary errors
	ErrDictionaryUnavailable = errors.New("dissect: dictionary unavailable")
	ErrMalformedDefinition   = errors.New("dissect: malformed dictionary definition")

	// Header compression errors
	ErrChecksumMismatch  = errors.New("dissect: checksum mismatch")
	ErrSlotOutOfRange    = errors.New("dissect: connection slot out of range")
	ErrSlotUninitialized = errors.New("dissect: connection slot not initialized")
	ErrTossed            = errors.New("dissect: stream tossed, waiting for resync")
	ErrUnknownDirection  = errors.New("dissect: unknown packet direction")
	ErrNotCompressible   = errors.New("dissect: packet cannot be compressed")

	// Plugin errors
	ErrPluginNotFound   = errors.New("dissect: plugin not found")
	ErrPluginInitFailed = errors.New("dissect: plugin init failed")

	// Configuration errors
	ErrConfigInvalid = errors.New("dissect: invalid configuration")
)
