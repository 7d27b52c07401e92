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

// Package execution carries a lab run's outcome into the process exit code,
// grounded on the teacher's own execution package: an ExitError that wraps
// down to main via errors.As, generalized here from Go-test quality-gate
// thresholds to the lab's own outcome classes (spec §4.G step 6).
package execution

// ErrorType is the type of the error that can generate a specific exit status.
type ErrorType int

// String produces the human readable sentence for the ErrorType.
func (e ErrorType) String() string {
	switch e {
	case MissedMutants:
		return "missed mutants found"
	case TimedOut:
		return "one or more scenarios timed out"
	case BaselineFailed:
		return "baseline scenario failed"
	}
	panic("this should not happen")
}

const (
	// MissedMutants is raised when at least one mutant survived testing.
	MissedMutants ErrorType = iota

	// TimedOut is raised when at least one scenario timed out.
	TimedOut

	// BaselineFailed is raised when the baseline scenario itself failed,
	// making every derived timeout and mutant outcome meaningless.
	BaselineFailed
)

var errorMapping = map[ErrorType]int{
	MissedMutants:  2,
	TimedOut:       3,
	BaselineFailed: 4,
}

// ExitError is a special Error that is raised when special conditions require
// Gremlins to exit with a specific errorCode.
// If this error is returned and/or properly wrapped, it will reach the main
// function. In the main, the exitCode will be set as the exit code of the
// execution.
type ExitError struct {
	errorType ErrorType
	exitCode  int
}

// NewExitErr instantiates a new ExitError.
func NewExitErr(et ErrorType) *ExitError {
	exitCode := errorMapping[et]

	return &ExitError{exitCode: exitCode, errorType: et}
}

// Error is the implementation of the Error interface and returns
// the ErrorType human readable message.
func (e *ExitError) Error() string {
	return e.errorType.String()
}

// ExitCode returns the exit code associated with the specific ErrorType.
func (e *ExitError) ExitCode() int {
	return e.exitCode
}
