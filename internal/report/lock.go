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
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

// Lock is the advisory whole-file lock written to mutants.out/lock.json so
// two concurrent invocations against the same output directory notice each
// other rather than silently corrupting state.
type Lock struct {
	CargoMutantsVersion string    `json:"cargo_mutants_version"`
	StartTime           time.Time `json:"start_time"`
	Hostname            string    `json:"hostname"`
	Username            string    `json:"username"`
}

func lockPath(ps PathSet) string {
	return filepath.Join(ps.Root, "lock.json")
}

// AcquireLock writes lock.json, failing at once if one is already present;
// it does not wait for the other run to finish. Whether the process that
// wrote the file is still alive is not checked: presence of the file is
// itself the signal.
func AcquireLock(ps PathSet, version string) error {
	if _, err := os.Stat(lockPath(ps)); err == nil {
		return fmt.Errorf("another run appears to be using %s (lock.json present)", ps.Root)
	}

	host, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	l := Lock{
		CargoMutantsVersion: version,
		StartTime:           time.Now(),
		Hostname:            host,
		Username:            username,
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding lock.json: %w", err)
	}

	return os.WriteFile(lockPath(ps), data, 0o644)
}

// ReleaseLock removes lock.json at the end of a run.
func ReleaseLock(ps PathSet) error {
	err := os.Remove(lockPath(ps))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
