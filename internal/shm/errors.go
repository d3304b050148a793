package shm

import "errors"

// ErrNotExist is returned by Attach/Size when the named backing object has
// not been created yet.
var ErrNotExist = errors.New("shm: backing object does not exist")
