package region

import "errors"

var (
	// ErrInvalidArgument covers malformed input: empty names, zero-size
	// regions, unknown topics. Never retried.
	ErrInvalidArgument = errors.New("region: invalid argument")
	// ErrBackingStore covers create/resize/map failures from the OS.
	ErrBackingStore = errors.New("region: backing store failure")
	// ErrInsufficientSpace is returned when the configured topics don't fit
	// in the requested region size.
	ErrInsufficientSpace = errors.New("region: insufficient space for configured topics")
	// ErrBadMagic is returned by Attach when the mapped bytes don't carry a
	// valid usrl header.
	ErrBadMagic = errors.New("region: bad magic, not a usrl region")
	// ErrVersionMismatch is returned by Attach when the header's version is
	// one this package doesn't know how to read.
	ErrVersionMismatch = errors.New("region: unsupported layout version")
	// ErrTopicNotFound is returned by Topic when no topic of that name
	// exists in the region.
	ErrTopicNotFound = errors.New("region: topic not found")
)
