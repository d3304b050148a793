/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package shm opens, creates and maps POSIX shared-memory-backed regions
// under /dev/shm. It is the only package in this module that talks to the
// OS directly; everything above it works on the returned byte slice.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Mapping is a single mmap'd view over a shared-memory backing file.
type Mapping struct {
	Bytes []byte
	Path  string

	f *os.File
}

// Created reports whether this call created the backing file (true) or
// attached to one that already existed (false).
type OpenResult struct {
	Mapping *Mapping
	Created bool
}

// baseDir is the directory backing objects are created under. It defaults
// to /dev/shm (the POSIX shared-memory mount point) and is only ever
// overridden by tests, which need a writable directory regardless of the
// sandbox's /dev/shm availability.
var baseDir = "/dev/shm"

// SetBaseDirForTest overrides the backing directory for the duration of a
// test. It exists so packages built on top of shm (region, pubsub) can run
// their own tests against a temp directory instead of the real /dev/shm.
func SetBaseDirForTest(dir string) {
	baseDir = dir
}

// resolvePath turns a host-scoped name (convention: a leading "/" path-like
// token, e.g. "/usrl-demo") into a path under baseDir, matching the POSIX
// shm_open naming convention.
func resolvePath(name string) string {
	name = filepath.Clean("/" + name)
	return filepath.Join(baseDir, name)
}

// CreateExclusive attempts to create a new backing file of exactly `size`
// bytes and map it. If the file already exists, it opens and maps the
// existing file instead (its on-disk size wins over the requested size),
// reporting Created=false so the caller can treat this as an attach.
func CreateExclusive(name string, size int64) (*OpenResult, error) {
	path := resolvePath(name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err == nil {
		if truncErr := f.Truncate(size); truncErr != nil {
			f.Close()
			os.Remove(path)
			return nil, fmt.Errorf("shm: truncate %s to %d bytes: %w", path, size, truncErr)
		}
		m, mapErr := mapFile(f, path, size)
		if mapErr != nil {
			os.Remove(path)
			return nil, mapErr
		}
		return &OpenResult{Mapping: m, Created: true}, nil
	}

	if !os.IsExist(err) {
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}

	m, err := Attach(name)
	if err != nil {
		return nil, err
	}
	return &OpenResult{Mapping: m, Created: false}, nil
}

// Attach opens and maps an existing backing file, mapping exactly the
// OS-reported size (never the caller's hint) so unmap sizes always match.
func Attach(name string) (*Mapping, error) {
	path := resolvePath(name)

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}

	return mapFile(f, path, info.Size())
}

func mapFile(f *os.File, path string, size int64) (*Mapping, error) {
	if size <= 0 {
		f.Close()
		return nil, fmt.Errorf("shm: %s has non-positive size %d", path, size)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}

	return &Mapping{Bytes: data, Path: path, f: f}, nil
}

// Size reports the byte size of a backing object without mapping it,
// matching the teacher idiom of discovering OS-reported sizes via Stat
// rather than trusting a caller-supplied hint.
func Size(name string) (int64, error) {
	path := resolvePath(name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return 0, err
	}
	return info.Size(), nil
}

// Remove unlinks the backing file. This is the explicit, non-default
// destructive tool called out in spec §9 — never invoked by CreateExclusive
// or Attach.
func Remove(name string) error {
	path := resolvePath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: remove %s: %w", path, err)
	}
	return nil
}

// Close unmaps the region and closes the backing file descriptor.
func (m *Mapping) Close() error {
	var err error
	if m.Bytes != nil {
		if munmapErr := syscall.Munmap(m.Bytes); munmapErr != nil {
			err = fmt.Errorf("shm: munmap %s: %w", m.Path, munmapErr)
		}
		m.Bytes = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("shm: close %s: %w", m.Path, closeErr)
		}
		m.f = nil
	}
	return err
}
