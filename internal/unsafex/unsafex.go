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

// Package unsafex converts between []byte and string without copying, used
// by region.entryName to read a topic's NUL-terminated name directly out of
// the mapped bytes instead of allocating a copy on every lookup — the same
// zero-copy posture the ring engine uses for payloads.
package unsafex

import "unsafe"

// BinaryToString converts b to a string without copying. The returned
// string aliases b; the caller must not mutate b afterward.
func BinaryToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBinary converts s to a []byte without copying. The returned slice
// aliases s's storage and must not be written to.
func StringToBinary(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
