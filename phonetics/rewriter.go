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
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/czcorpus/cnc-gokit/collections"
)

const (
	captureGroupOpening = "(?P<x>"
)

var (
	captureGroupRegexp = regexp.MustCompile(`\(\?P<x>(.*?)\)`)
)

// ExceptionRule rewrites a part of a word which would be
// transcribed incorrectly by the generic rules.
type ExceptionRule struct {

	// Match is an RE2 pattern containing exactly one capture group
	// named `x` marking the part to be rewritten. The rest of the
	// pattern is just context.
	Match string

	// Original is the source of the `x` group
	Original string

	Rewrite string
}

// LoadExceptions reads exception rules from a table with
// columns `match` and `rewrite`. A match without any group
// is considered to be rewritten as a whole.
func LoadExceptions(r io.Reader) ([]ExceptionRule, error) {
	tbl, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load exceptions: %w", err)
	}
	ans := make([]ExceptionRule, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		if len(row) != 2 {
			return nil, fmt.Errorf(
				"failed to load exceptions: %w: line %d: expected 2 fields, got %d",
				ErrMalformedTable, tbl.lineNums[i], len(row))
		}
		match := row[0]
		if !strings.Contains(match, "(") {
			match = captureGroupOpening + match + ")"
		}
		srch := captureGroupRegexp.FindStringSubmatch(match)
		if srch == nil {
			return nil, fmt.Errorf(
				"failed to load exceptions: %w: line %d: missing group x in %s",
				ErrMalformedTable, tbl.lineNums[i], match)
		}
		if _, err := regexp.Compile(match); err != nil {
			return nil, fmt.Errorf(
				"failed to load exceptions: line %d: %w", tbl.lineNums[i], err)
		}
		ans = append(ans, ExceptionRule{Match: match, Original: srch[1], Rewrite: row[1]})
	}
	return ans, nil
}

// ExceptionRewriter applies exception rules to words. Multiple
// rules may apply to a single word but only as long as they are
// contiguous and start at the beginning of the word. This allows
// e.g. a prefix rule to be chained with a root rule.
//
// The rewriter is safe for concurrent use.
type ExceptionRewriter struct {
	rules []ExceptionRule

	// groupIdx maps rules to indices of their `x` subexpressions
	groupIdx []int

	re *regexp.Regexp

	cache *collections.ConcurrentMap[string, string]
}

// Rewrite rewrites exceptions in a (lowercase) word.
// The function is pure so its results are memoized.
func (rw *ExceptionRewriter) Rewrite(word string) string {
	if rw.re == nil {
		return word
	}
	if ans, ok := rw.cache.GetWithTest(word); ok {
		return ans
	}
	ans := rw.rewrite(word)
	rw.cache.Set(word, ans)
	return ans
}

func (rw *ExceptionRewriter) rewrite(word string) string {
	var buff strings.Builder
	var at, written int
	for _, m := range rw.re.FindAllStringSubmatchIndex(word, -1) {
		if m[0] != at {
			continue
		}
		at = m[1]
		for i, gi := range rw.groupIdx {
			start, end := m[2*gi], m[2*gi+1]
			if start < 0 {
				continue
			}
			buff.WriteString(word[written:start])
			buff.WriteString(rw.rules[i].Rewrite)
			written = end
			break
		}
	}
	buff.WriteString(word[written:])
	return buff.String()
}

// NewExceptionRewriter compiles the rules into a single alternation
// where rules with longer captured substrings take precedence.
func NewExceptionRewriter(rules []ExceptionRule) (*ExceptionRewriter, error) {
	ans := &ExceptionRewriter{
		rules: slices.Clone(rules),
		cache: collections.NewConcurrentMap[string, string](),
	}
	if len(rules) == 0 {
		return ans, nil
	}
	slices.SortStableFunc(ans.rules, func(r1, r2 ExceptionRule) int {
		return utf8.RuneCountInString(r2.Original) - utf8.RuneCountInString(r1.Original)
	})
	alts := make([]string, len(ans.rules))
	for i, rule := range ans.rules {
		alts[i] = strings.Replace(rule.Match, captureGroupOpening, fmt.Sprintf("(?P<x%d>", i), 1)
	}
	re, err := regexp.Compile("(" + strings.Join(alts, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to compile exception rules: %w", err)
	}
	ans.re = re
	ans.groupIdx = make([]int, len(ans.rules))
	for i := range ans.rules {
		ans.groupIdx[i] = re.SubexpIndex(fmt.Sprintf("x%d", i))
	}
	return ans, nil
}
