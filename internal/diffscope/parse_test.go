/*
 * Copyright 2024 The Gojumble Authors
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

package diffscope

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewWithCmd(t *testing.T) {
	t.Run("must return nil on empty ref", func(t *testing.T) {
		m := &mockCmd{}

		d, err := NewWithCmd(m.call, "")

		if d != nil || err != nil {
			t.Fatal("incorrect result")
		}
		if m.calls != 0 {
			t.Fatal("git should not be invoked without a ref")
		}
	})

	t.Run("must return error on git failure", func(t *testing.T) {
		m := &mockCmd{outputErr: errors.New("boom")}

		_, err := NewWithCmd(m.call, "main")
		if err == nil {
			t.Fatal("must return error")
		}

		expectedArgs := []string{"diff", "--merge-base", "main"}
		if m.callName != "git" || !reflect.DeepEqual(m.callArgs, expectedArgs) {
			t.Fatalf("called %s %v", m.callName, m.callArgs)
		}
	})

	t.Run("must return error on malformed diff", func(t *testing.T) {
		m := &mockCmd{output: []byte(testErrDiff)}

		if _, err := NewWithCmd(m.call, "main"); err == nil {
			t.Fatal("must return error")
		}
	})

	t.Run("must return changes", func(t *testing.T) {
		m := &mockCmd{output: []byte(testDiff)}

		expected := Diff{
			"src/Sample.java": {{StartLine: 44, EndLine: 44}},
		}

		result, err := NewWithCmd(m.call, "main")
		if err != nil || !reflect.DeepEqual(result, expected) {
			t.Fatalf("err=%v result=%+v", err, result)
		}
	})
}

type mockCmd struct {
	calls     int
	callName  string
	callArgs  []string
	output    []byte
	outputErr error
}

func (m *mockCmd) call(name string, args ...string) execCmd {
	m.calls++
	m.callName = name
	m.callArgs = args
	return m
}

func (m *mockCmd) CombinedOutput() ([]byte, error) {
	return m.output, m.outputErr
}

const (
	testDiff = `
diff --git a/src/Sample.java b/src/Sample.java
index 54051bc..b92c425 100644
--- a/src/Sample.java
+++ b/src/Sample.java
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
diff --git a/src/Sample.java b/src/Sample.java
index 54051bc..b92c425 100644
--- a/src/Sample.java
+++ b/src/Sample.java
@@ -41,7 +41,7 @@ const (
 	test = "test"
+	test = "test"
 	test = "test"
 )
`
)
