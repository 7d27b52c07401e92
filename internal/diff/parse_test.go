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

package diff

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFromFile(t *testing.T) {
	t.Run("must return nil diff on empty path", func(t *testing.T) {
		d, err := FromFile("")
		if d != nil || err != nil {
			t.Fatal("incorrect result")
		}
	})

	t.Run("must return error for missing file", func(t *testing.T) {
		_, err := FromFile(filepath.Join(t.TempDir(), "does-not-exist.diff"))
		if err == nil {
			t.Error("must return error")
		}
	})

	t.Run("must return error for malformed diff", func(t *testing.T) {
		path := writeTestDiff(t, testErrDiff)

		_, err := FromFile(path)
		if err == nil {
			t.Error("must return error")
		}
	})

	t.Run("must return changes", func(t *testing.T) {
		path := writeTestDiff(t, testDiff)

		expected := Diff{
			"test/test": {{StartLine: 44, EndLine: 44}},
		}

		result, err := FromFile(path)

		if err != nil || !reflect.DeepEqual(result, expected) {
			t.Log("err", err)
			t.Log("result", result)
			t.Error("unexpected result")
		}
	})
}

func writeTestDiff(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changes.diff")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

const (
	testDiff = `
diff --git a/test/test b/test/test
index 54051bc..b92c425 100644
--- a/test/test
+++ b/test/test
@@ -41,6 +41,7 @@ const (
 	test = "test"
 	test = "test"
 	test = "test"
+	test = "test"
 	test = "test"
 	test = "test"
 )
`
	testErrDiff = `
diff --git a/test/test b/test/test
index 54051bc..b92c425 100644
--- a/test/test
+++ b/test/test
@@ -41,7 +41,7 @@ const (
 	test = "test"
+	test = "test"
 	test = "test"
 )
`
)
