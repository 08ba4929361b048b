// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package phonetics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExceptions = "match\trewrite\n" +
	"# comment\n" +
	"ne\tne\n" +
	"anti\tanty\n" +
	"komuni\tkomuny\n" +
	"(?P<x>komunisti)c\tkomunysty\n" +
	"(?P<x>ex)[aeiou]\tegz\n"

func newTestRewriter(t *testing.T) *ExceptionRewriter {
	rules, err := LoadExceptions(strings.NewReader(testExceptions))
	require.NoError(t, err)
	rw, err := NewExceptionRewriter(rules)
	require.NoError(t, err)
	return rw
}

func TestLoadExceptions(t *testing.T) {
	rules, err := LoadExceptions(strings.NewReader(testExceptions))
	assert.NoError(t, err)
	assert.Len(t, rules, 5)
	assert.Equal(t, ExceptionRule{Match: "(?P<x>ne)", Original: "ne", Rewrite: "ne"}, rules[0])
	assert.Equal(t, "komunisti", rules[3].Original)
	assert.Equal(t, "(?P<x>komunisti)c", rules[3].Match)
}

func TestLoadExceptionsMissingGroup(t *testing.T) {
	_, err := LoadExceptions(strings.NewReader("match\trewrite\n(ab|cd)e\tx\n"))
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestLoadExceptionsInvalidRegexp(t *testing.T) {
	_, err := LoadExceptions(strings.NewReader("match\trewrite\n(?P<x>ab\tx\n"))
	assert.Error(t, err)
}

func TestRewriteChained(t *testing.T) {
	rw := newTestRewriter(t)
	assert.Equal(t, "antykomunysta", rw.Rewrite("antikomunista"))
	assert.Equal(t, "antykomunystycký", rw.Rewrite("antikomunistický"))
	assert.Equal(t, "neegzistoval", rw.Rewrite("neexistoval"))
}

func TestRewriteLongestWins(t *testing.T) {
	rw := newTestRewriter(t)
	assert.Equal(t, "komunystycký", rw.Rewrite("komunistický"))
	assert.Equal(t, "komunysta", rw.Rewrite("komunista"))
}

func TestRewriteNonContiguous(t *testing.T) {
	rw := newTestRewriter(t)
	assert.Equal(t, "antyfookomunista", rw.Rewrite("antifookomunista"))
	assert.Equal(t, "fookomunista", rw.Rewrite("fookomunista"))
}

func TestRewriteIsMemoized(t *testing.T) {
	rw := newTestRewriter(t)
	assert.Equal(t, "antykomunysta", rw.Rewrite("antikomunista"))
	v, ok := rw.cache.GetWithTest("antikomunista")
	assert.True(t, ok)
	assert.Equal(t, "antykomunysta", v)
	assert.Equal(t, "antykomunysta", rw.Rewrite("antikomunista"))
}

func TestRewriteNoRules(t *testing.T) {
	rw, err := NewExceptionRewriter([]ExceptionRule{})
	assert.NoError(t, err)
	assert.Equal(t, "antikomunista", rw.Rewrite("antikomunista"))
}
