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

package log_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargo-gremlins/gremlins/internal/log"
)

func TestInfolnWritesToOut(t *testing.T) {
	defer log.Reset()
	var out, eOut bytes.Buffer
	log.Init(&out, &eOut)

	log.Infoln("hello")

	assert.Contains(t, out.String(), "hello")
	assert.Empty(t, eOut.String())
}

func TestErrorlnWritesToErrOut(t *testing.T) {
	defer log.Reset()
	var out, eOut bytes.Buffer
	log.Init(&out, &eOut)

	log.Errorln("boom")

	assert.Contains(t, eOut.String(), "boom")
	assert.Empty(t, out.String())
}

func TestUninitializedLoggerIsANoOp(t *testing.T) {
	log.Reset()

	assert.NotPanics(t, func() {
		log.Infoln("ignored")
		log.Errorf("ignored %d", 1)
	})
}
