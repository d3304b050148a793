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

// Package cpupause provides the architecture-specific spin hint used by the
// MWMR slot-safety wait (ring.mwmr) during its first few busy-wait
// iterations, before it falls back to a cooperative scheduler yield.
package cpupause

// SpinIterations is the number of Pause() calls issued before the caller
// should switch to Yield().
const SpinIterations = 10
