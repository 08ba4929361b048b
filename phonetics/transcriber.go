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
	"strings"
	"unicode"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

type transcribeOpts struct {
	alphabet   Alphabet
	hiatus     bool
	tagger     Tagger
	boundaries map[string]bool
}

type Option func(*transcribeOpts)

// WithAlphabet sets the alphabet of the output phones
// (sampa, ipa, cs or cnc; case insensitive).
func WithAlphabet(alphabet Alphabet) Option {
	return func(opts *transcribeOpts) {
		opts.alphabet = Alphabet(strings.ToLower(string(alphabet)))
	}
}

// WithHiatus enables insertion of a /j/ between a high front vowel
// and a subsequent vowel.
func WithHiatus(enabled bool) Option {
	return func(opts *transcribeOpts) {
		opts.hiatus = enabled
	}
}

// WithTagger enables smarter treatment of vowel sequences
// emerging as a result of prefixing.
func WithTagger(tagger Tagger) Option {
	return func(opts *transcribeOpts) {
		opts.tagger = tagger
	}
}

// WithProsodicBoundaries sets non-transcribed tokens which prevent
// connected speech processes from crossing them. By default,
// the processes are emulated irrespective of intervening
// non-transcribed tokens.
func WithProsodicBoundaries(symbols ...string) Option {
	return func(opts *transcribeOpts) {
		for _, s := range symbols {
			opts.boundaries[s] = true
		}
	}
}

// ---------------------------

// Transcriber performs rule-based phonetic transcription of Czech.
// Each transcribed phrase is treated as a single prosodic unit
// so connected speech processes are emulated across word boundaries
// within the phrase.
//
// The Transcriber is safe for concurrent use.
type Transcriber struct {
	inventory *Inventory
	g2p       *graphemeConverter
	csp       *cspEngine
}

func (t *Transcriber) Inventory() *Inventory {
	return t.inventory
}

// Transcribe transcribes a phrase which is first normalized (NFC)
// and split on whitespace.
func (t *Transcriber) Transcribe(ctx context.Context, phrase string, opts ...Option) (Result, error) {
	return t.transcribe(ctx, strings.Fields(norm.NFC.String(phrase)), opts)
}

// TranscribeTokens transcribes an already tokenized phrase.
// Tokens consisting purely of alphabetic characters and hyphens
// are transcribed, other tokens are passed through unchanged.
// A nil slice is rejected with ErrInvalidInput.
func (t *Transcriber) TranscribeTokens(ctx context.Context, tokens []string, opts ...Option) (Result, error) {
	if tokens == nil {
		return nil, fmt.Errorf("%w: expected a list of tokens, got nil", ErrInvalidInput)
	}
	normalized := make([]string, len(tokens))
	for i, tok := range tokens {
		normalized[i] = norm.NFC.String(tok)
	}
	return t.transcribe(ctx, normalized, opts)
}

func (t *Transcriber) transcribe(ctx context.Context, tokens []string, optFns []Option) (Result, error) {
	opts := transcribeOpts{
		alphabet:   DefaultAlphabet,
		boundaries: make(map[string]bool),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.alphabet == "" {
		opts.alphabet = DefaultAlphabet
	}
	if err := opts.alphabet.Validate(); err != nil {
		return nil, err
	}
	matrix, toTranscribe, err := separateTokens(tokens, opts.boundaries)
	if err != nil {
		return nil, err
	}
	if len(toTranscribe) == 0 {
		return matrix, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transcribed, err := t.transcribeProsodicUnit(ctx, toTranscribe, opts)
	if err != nil {
		return nil, err
	}
	var numWords int
	for i, item := range matrix {
		if item.IsTranscribed() {
			if numWords >= len(transcribed) {
				return nil, fmt.Errorf(
					"%w: got %d transcribed words, expected more", ErrInconsistentOutput, len(transcribed))
			}
			matrix[i].Phones = transcribed[numWords]
			numWords++
		}
	}
	if numWords != len(transcribed) {
		return nil, fmt.Errorf(
			"%w: got %d transcribed words, expected %d", ErrInconsistentOutput, len(transcribed), numWords)
	}
	return matrix, nil
}

func logPhones(stage string, phones []Phone) {
	if e := log.Debug(); e.Enabled() {
		e.Str("phones", spew.Sprint(phones)).Msgf("transcription after %s", stage)
	}
}

func (t *Transcriber) transcribeProsodicUnit(ctx context.Context, words []string, opts transcribeOpts) ([][]string, error) {
	log.Debug().Strs("orthographic", words).Msg("transcribing prosodic unit")
	words, err := smartVowelSeqs(ctx, words, opts.tagger)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe prosodic unit: %w", err)
	}
	log.Debug().Strs("words", words).Msg("transcription after smartVowelSeqs")
	phones, err := t.g2p.str2phones(words)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe prosodic unit: %w", err)
	}
	logPhones("str2phones", phones)
	// assimilation of voicing can propagate so it runs
	// in a separate reverse pass
	t.csp.assimilateVoicing(phones)
	logPhones("assimilateVoicing", phones)
	phones = t.csp.applyOtherProcesses(phones, opts.hiatus)
	logPhones("applyOtherProcesses", phones)
	return splitWordsAndTranslate(phones, t.inventory.Phones, opts.alphabet), nil
}

func splitWordsAndTranslate(phones []Phone, table PhoneTable, alphabet Alphabet) [][]string {
	var ans [][]string
	word := make([]string, 0, 8)
	for _, ph := range phones {
		word = append(word, table.Symbol(ph.Value, alphabet))
		if ph.WordBoundary {
			ans = append(ans, word)
			word = make([]string, 0, 8)
		}
	}
	return ans
}

// ---------------------------

func isAlphabetic(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r) || unicode.Is(unicode.Other_Alphabetic, r)
}

// isTranscribable tests whether the token consists of alphabetic
// characters and hyphens with at least one alphabetic character.
func isTranscribable(token string) bool {
	var numAlpha int
	for _, r := range token {
		if isAlphabetic(r) {
			numAlpha++

		} else if r != '-' {
			return false
		}
	}
	return numAlpha > 0
}

// separateTokens creates a matrix of the result containing
// pass-through tokens and empty slots (with non-nil Phones) for
// transcribable tokens. The second returned value contains words
// to be transcribed with prosodic boundaries replaced by the
// BlockingPhone.
func separateTokens(tokens []string, boundaries map[string]bool) (Result, []string, error) {
	matrix := make(Result, 0, len(tokens))
	toTranscribe := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isTranscribable(tok) {
			if strings.HasSuffix(tok, "-") {
				return nil, nil, &TrailingHyphenError{Token: tok}
			}
			toTranscribe = append(toTranscribe, tok)
			matrix = append(matrix, Item{Phones: []string{}})

		} else if boundaries[tok] {
			toTranscribe = append(toTranscribe, BlockingPhone)
			matrix = append(matrix, Item{Token: tok})

		} else {
			matrix = append(matrix, Item{Token: tok})
		}
	}
	return matrix, toTranscribe, nil
}

// ---------------------------

// NewTranscriber creates a transcriber based on the provided inventory.
// All the patterns are compiled just once here.
func NewTranscriber(inventory *Inventory) (*Transcriber, error) {
	rewriter, err := NewExceptionRewriter(inventory.Exceptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}
	g2p, err := newGraphemeConverter(inventory.Substr2Phones, rewriter)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}
	return &Transcriber{
		inventory: inventory,
		g2p:       g2p,
		csp:       &cspEngine{voicing: inventory.Voicing},
	}, nil
}
