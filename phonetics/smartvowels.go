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
	"context"
	"fmt"
	"slices"
	"strings"

	"corpy/common"

	"github.com/rs/zerolog/log"
)

// Token is a word annotated by a morphological tagger
type Token struct {
	Word  string `json:"word"`
	Lemma string `json:"lemma"`
	Tag   string `json:"tag"`
}

// Tagger provides lemmas and derivation paths of words. It is
// used to detect prefixes so that diphthongs and hiatus are not
// produced across morpheme boundaries.
type Tagger interface {

	// Tag tags a pre-tokenized sentence. It must return exactly
	// one token per word.
	Tag(ctx context.Context, words []string) ([]Token, error)

	// DerivationPath returns lemmas the provided lemma is derived
	// from, starting with the lemma itself (e.g. poukázat ukázat kázat)
	DerivationPath(ctx context.Context, lemma string) ([]string, error)
}

func isFrontVowelGrapheme(r rune) bool {
	return strings.ContainsRune("iíyý", r)
}

// morphemeBoundaries finds offsets (in runes) within a lowercase word
// form where a prefix ends and a vowel sequence could be
// misinterpreted as a diphthong or hiatus.
func morphemeBoundaries(lower []rune, derivation []string) []int {
	var ans []int
	for _, lemma := range derivation {
		lcs, ok := common.LongestCommonSubstring(string(lower), strings.ToLower(lemma))
		log.Debug().
			Str("word", string(lower)).
			Str("lemma", lemma).
			Any("lcs", lcs).
			Msg("searching for morpheme boundary")
		// we're interested only in lemmas allowing us to identify
		// prefixes; the common substring must start at the beginning
		// of the lemma (cf. doutník vs. dutý)
		if !ok || lcs.Start1 == 0 || lcs.Start2 != 0 {
			continue
		}
		i := lcs.Start1
		if lower[i] == 'u' || isFrontVowelGrapheme(lower[i-1]) {
			ans = append(ans, i)
		}
	}
	slices.Sort(ans)
	return slices.Compact(ans)
}

// smartVowelSeqs inserts blocking hyphens into words at prefix
// boundaries identified via derivation paths of word lemmas.
// Without a tagger, the words are returned unchanged.
func smartVowelSeqs(ctx context.Context, words []string, tagger Tagger) ([]string, error) {
	if tagger == nil {
		return words, nil
	}
	tokens, err := tagger.Tag(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("failed to tag words: %w", err)
	}
	if len(tokens) != len(words) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrTaggerMismatch, len(words), len(tokens))
	}
	ans := make([]string, len(words))
	for i, token := range tokens {
		derivation, err := tagger.DerivationPath(ctx, token.Lemma)
		if err != nil {
			return nil, fmt.Errorf("failed to get derivation path of %s: %w", token.Lemma, err)
		}
		lower := []rune(strings.ToLower(words[i]))
		offsets := morphemeBoundaries(lower, derivation)
		if len(offsets) == 0 {
			ans[i] = words[i]
			continue
		}
		// inserting from the end keeps the remaining offsets valid
		for j := len(offsets) - 1; j >= 0; j-- {
			lower = slices.Insert(lower, offsets[j], '-')
		}
		ans[i] = string(lower)
	}
	return ans, nil
}
