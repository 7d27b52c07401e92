/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DebugLog is an append-only structured trace of the invocation, written
// to mutants.out/debug.log per spec §6.
type DebugLog struct {
	f *os.File
}

// OpenDebugLog opens (creating if necessary) debug.log inside ps.
func OpenDebugLog(ps PathSet) (*DebugLog, error) {
	f, err := os.OpenFile(filepath.Join(ps.Root, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening debug.log: %w", err)
	}

	return &DebugLog{f: f}, nil
}

// Tracef appends one timestamped trace line.
func (d *DebugLog) Tracef(format string, args ...any) {
	if d == nil || d.f == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(d.f, "%s %s\n", time.Now().Format(time.RFC3339Nano), msg)
}

// Close closes the underlying file.
func (d *DebugLog) Close() error {
	if d == nil || d.f == nil {
		return nil
	}

	return d.f.Close()
}
