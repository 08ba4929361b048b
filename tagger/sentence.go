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

package tagger

import (
	"context"

	"corpy/phonetics"
)

// SentenceTagger provides lemmas of an already annotated sentence
// (e.g. from a corpus vertical file). Words are matched to
// the annotated tokens by their values in the order of appearance,
// so the tagger can handle word lists containing just a subset of
// the sentence (e.g. without punctuation).
type SentenceTagger struct {
	lemmas      map[string][]string
	derivations Derivations
}

func (st *SentenceTagger) Tag(ctx context.Context, words []string) ([]phonetics.Token, error) {
	used := make(map[string]int)
	ans := make([]phonetics.Token, len(words))
	for i, w := range words {
		lemmas := st.lemmas[w]
		if used[w] < len(lemmas) {
			ans[i] = phonetics.Token{Word: w, Lemma: lemmas[used[w]]}
			used[w]++
			continue
		}
		ans[i] = phonetics.Token{Word: w, Lemma: w}
	}
	return ans, nil
}

func (st *SentenceTagger) DerivationPath(ctx context.Context, lemma string) ([]string, error) {
	return st.derivations.Path(lemma), nil
}

// NewSentenceTagger creates a tagger for a single annotated sentence.
// The derivations may be nil.
func NewSentenceTagger(tokens []phonetics.Token, derivations Derivations) *SentenceTagger {
	ans := &SentenceTagger{
		lemmas:      make(map[string][]string),
		derivations: derivations,
	}
	for _, tok := range tokens {
		ans.lemmas[tok.Word] = append(ans.lemmas[tok.Word], tok.Lemma)
	}
	return ans
}
