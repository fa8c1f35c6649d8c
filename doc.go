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

// Package netty is a small event-driven network framework. A Channel owns
// exactly one Pipeline: an ordered, bidirectional chain of Handlers bracketed
// by synthetic head/tail sentinels. Every inbound event (read, active,
// inactive, user event, error) and every outbound operation (write, flush,
// bind, connect, close) for a channel's lifetime traverses its pipeline on
// the channel's single owning EventLoop.
package netty
