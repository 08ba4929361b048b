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
	"cmp"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	// glide between a (possibly non-palatalizing) `i` and a following
	// front vowel; the `y` variant comes from exceptions blocking palatalization
	iiSeqRegexp = regexp.MustCompile(`([iy])([ií])`)
)

// isGeminableGrapheme tells whether a duplicated grapheme should
// be pronounced twice (short vowels, cf. `pootevřít`)
func isGeminableGrapheme(r rune) bool {
	return strings.ContainsRune("aeoiuy", r)
}

// collapseDuplicateGraphemes removes immediately duplicated graphemes
// (except for short vowels). Pairs are matched left to right and do not
// overlap, i.e. `sss` becomes `ss`.
func collapseDuplicateGraphemes(word string) string {
	runes := []rune(word)
	ans := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		ans = append(ans, runes[i])
		if i+1 < len(runes) && runes[i] == runes[i+1] && !isGeminableGrapheme(runes[i]) {
			i++
		}
	}
	return string(ans)
}

// substrRegexpSrc creates an alternation of all the substrings
// where longer substrings are tried first. A final `.` makes sure
// each character of an input is matched.
func substrRegexpSrc(substrs []string) string {
	sorted := slices.Clone(substrs)
	slices.SortFunc(sorted, func(s1, s2 string) int {
		if c := cmp.Compare(utf8.RuneCountInString(s2), utf8.RuneCountInString(s1)); c != 0 {
			return c
		}
		return strings.Compare(s1, s2)
	})
	alts := make([]string, 0, len(sorted)+1)
	for _, s := range sorted {
		alts = append(alts, regexp.QuoteMeta(s))
	}
	alts = append(alts, ".")
	return "(?s:" + strings.Join(alts, "|") + ")"
}

// graphemeConverter converts orthographic words to phones
type graphemeConverter struct {
	substr2phones map[string][]string
	substrRegexp  *regexp.Regexp
	rewriter      *ExceptionRewriter
}

func (gc *graphemeConverter) normalizeWord(word string) string {
	word = strings.ToLower(word)
	word = gc.rewriter.Rewrite(word)
	word = iiSeqRegexp.ReplaceAllString(word, "${1}j${2}")
	return collapseDuplicateGraphemes(word)
}

// str2phones converts words into a flat list of phones where the last
// phone of each word is marked as a word boundary.
func (gc *graphemeConverter) str2phones(words []string) ([]Phone, error) {
	ans := make([]Phone, 0, len(words)*6)
	for _, word := range words {
		normalized := gc.normalizeWord(word)
		numBefore := len(ans)
		for _, substr := range gc.substrRegexp.FindAllString(normalized, -1) {
			phones, ok := gc.substr2phones[substr]
			if !ok {
				return nil, fmt.Errorf("%w: %q (word %q)", ErrUnexpectedSubstring, substr, word)
			}
			for _, ph := range phones {
				ans = append(ans, Phone{Value: ph})
			}
		}
		if len(ans) == numBefore {
			return nil, fmt.Errorf("%w: word %q produced no phones", ErrUnexpectedSubstring, word)
		}
		ans[len(ans)-1].WordBoundary = true
	}
	return ans, nil
}

func newGraphemeConverter(substr2phones map[string][]string, rewriter *ExceptionRewriter) (*graphemeConverter, error) {
	re, err := regexp.Compile(substrRegexpSrc(slices.Collect(maps.Keys(substr2phones))))
	if err != nil {
		return nil, fmt.Errorf("failed to create grapheme converter: %w", err)
	}
	return &graphemeConverter{
		substr2phones: substr2phones,
		substrRegexp:  re,
		rewriter:      rewriter,
	}, nil
}
