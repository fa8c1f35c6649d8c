/*
 * Copyright 2019 the go-netty project
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package netty

import "errors"

// Structural pipeline errors. These are the recoverable half of the error
// kinds in this package; the other half (invariant violations, removal
// token mismatches, double-fulfilled promises) are programmer errors and
// panic through Exception instead, see exception.go.
var (
	// ErrIOOnClosedChannel is returned when a pipeline mutation or transport
	// operation is attempted against a channel that already finished
	// teardown.
	ErrIOOnClosedChannel = errors.New("netty: io on closed channel")

	// ErrAlreadyClosed is returned by the embedded driver's Finish when it
	// has already been called once.
	ErrAlreadyClosed = errors.New("netty: already closed")

	// ErrNotFound is returned by lookups (by name, by handler, by context)
	// that find no matching, user-visible context, and by Add when an
	// insertion reference is no longer in the pipeline.
	ErrNotFound = errors.New("netty: not found")

	// ErrDuplicateName is returned by Add when the supplied name collides
	// with an existing non-sentinel context name.
	ErrDuplicateName = errors.New("netty: duplicate handler name")

	// ErrUnremovableHandler is returned by Remove when the target handler
	// does not declare the Removable capability.
	ErrUnremovableHandler = errors.New("netty: handler is not removable")

	// ErrWrongType is returned by Unwrap when an envelope's runtime type
	// does not match the type a handler expected.
	ErrWrongType = errors.New("netty: wrong message type")
)
