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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"corpy/phonetics"

	"github.com/rs/zerolog/log"
)

// Derivations maps lemmas to their derivation paths. Each path
// starts with the lemma itself, followed by lemmas it is derived
// from (e.g. poukázat ukázat kázat).
type Derivations map[string][]string

// Path returns a derivation path of a lemma. For lemmas without
// any record, a path containing just the lemma is returned.
func (d Derivations) Path(lemma string) []string {
	if v, ok := d[strings.ToLower(lemma)]; ok {
		return v
	}
	return []string{lemma}
}

// LoadDerivations reads a TSV with columns `lemma` and `path`
// where path items are separated by spaces. The first line
// is considered a header.
func LoadDerivations(r io.Reader) (Derivations, error) {
	ans := make(Derivations)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	scanner.Scan() // header
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNum, len(fields))
		}
		path := strings.Fields(fields[1])
		if len(path) == 0 || path[0] != fields[0] {
			path = append([]string{fields[0]}, path...)
		}
		ans[strings.ToLower(fields[0])] = path
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read derivations: %w", err)
	}
	return ans, nil
}

// ---------------------------

// LexiconTagger is a simple tagger based on a list of word forms
// with their lemmas and tags. It is intended for cases where
// a full morphological analyzer is not available. Only the first
// analysis of an ambiguous form is used.
type LexiconTagger struct {
	forms       map[string]phonetics.Token
	derivations Derivations
}

// Tag looks up each word (case insensitive). Unknown words
// are considered to be their own lemmas.
func (lt *LexiconTagger) Tag(ctx context.Context, words []string) ([]phonetics.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ans := make([]phonetics.Token, len(words))
	for i, w := range words {
		tok, ok := lt.forms[strings.ToLower(w)]
		if !ok {
			ans[i] = phonetics.Token{Word: w, Lemma: w}
			continue
		}
		tok.Word = w
		ans[i] = tok
	}
	return ans, nil
}

func (lt *LexiconTagger) DerivationPath(ctx context.Context, lemma string) ([]string, error) {
	return lt.derivations.Path(lemma), nil
}

// Size returns number of known word forms
func (lt *LexiconTagger) Size() int {
	return len(lt.forms)
}

// NewLexiconTagger creates a tagger from a TSV with columns
// `form`, `lemma`, `tag` (with a header line) and from
// derivation paths (which may be nil).
func NewLexiconTagger(forms io.Reader, derivations Derivations) (*LexiconTagger, error) {
	ans := &LexiconTagger{
		forms:       make(map[string]phonetics.Token),
		derivations: derivations,
	}
	if ans.derivations == nil {
		ans.derivations = make(Derivations)
	}
	scanner := bufio.NewScanner(forms)
	lineNum := 0
	scanner.Scan() // header
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", lineNum, len(fields))
		}
		key := strings.ToLower(fields[0])
		if _, ok := ans.forms[key]; ok {
			continue
		}
		ans.forms[key] = phonetics.Token{Word: fields[0], Lemma: fields[1], Tag: fields[2]}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word forms: %w", err)
	}
	return ans, nil
}

// LoadDerivationsFile loads derivations from a file. For an empty
// path, nil Derivations are returned (each lemma is then its own root).
func LoadDerivationsFile(path string) (Derivations, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load derivations: %w", err)
	}
	defer f.Close()
	return LoadDerivations(f)
}

// LoadLexiconTagger loads a lexicon tagger from files. The derivations
// file is optional (empty path means no derivations).
func LoadLexiconTagger(formsPath, derivationsPath string) (*LexiconTagger, error) {
	derivations, err := LoadDerivationsFile(derivationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon tagger: %w", err)
	}
	ff, err := os.Open(formsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon tagger: %w", err)
	}
	defer ff.Close()
	ans, err := NewLexiconTagger(ff, derivations)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon tagger: %w", err)
	}
	log.Info().
		Str("forms", formsPath).
		Int("numForms", len(ans.forms)).
		Int("numDerivations", len(ans.derivations)).
		Msg("loaded lexicon tagger")
	return ans, nil
}
