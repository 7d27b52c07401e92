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

package configuration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargo-gremlins/gremlins/internal/configuration"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

func TestGenreEnabledKey(t *testing.T) {
	assert.Equal(t, "mutants.binary-operator.enabled", configuration.GenreEnabledKey(mutant.BinaryOperator))
}

func TestIsGenreDefaultEnabled(t *testing.T) {
	assert.True(t, configuration.IsGenreDefaultEnabled(mutant.FnValue))
}
