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

	"github.com/xeipuuv/gojsonschema"
)

// mutantsSchema and outcomesSchema are minimal structural schemas: they
// catch the class of bug that matters here, a field renamed or dropped by
// accident during a refactor, without trying to fully model every nested
// shape.
const mutantsSchema = `{
  "type": "object",
  "required": ["mutants"],
  "properties": {
    "mutants": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "genre", "file", "line", "column"]
      }
    }
  }
}`

const outcomesSchema = `{
  "type": "object",
  "required": ["start_time", "end_time", "counts", "outcomes"],
  "properties": {
    "counts": { "type": "object" },
    "outcomes": { "type": "array" }
  }
}`

// validateAgainst checks data against one of the embedded schemas, used
// before every write of mutants.json/outcomes.json so a serialization
// regression is caught immediately rather than discovered by a downstream
// consumer of the persisted file.
func validateAgainst(schema string, data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating against schema: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("document does not match schema: %v", result.Errors())
	}

	return nil
}
