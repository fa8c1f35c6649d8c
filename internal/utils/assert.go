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

// Package utils holds dependency-free helpers shared across the module.
package utils

import "fmt"

// Assert panics if err is non-nil. Used for invariant violations that must
// halt the process rather than be recovered from.
func Assert(err error) {
	if nil != err {
		panic(err)
	}
}

// AssertIf panics with a formatted message if condition is true.
func AssertIf(condition bool, format string, args ...interface{}) {
	if condition {
		panic(fmt.Errorf(format, args...))
	}
}
