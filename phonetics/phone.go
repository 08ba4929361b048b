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
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	// BlockingPhone separates phones which must not interact
	// (assimilation, diphthongs, degemination, hiatus). It is removed
	// from the final transcription.
	BlockingPhone = "-"

	glidePhone = "j"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownAlphabet     = fmt.Errorf("%w: unknown alphabet", ErrInvalidInput)
	ErrUnexpectedSubstring = errors.New("unexpected substring in input")
	ErrTaggerMismatch      = errors.New("tagger returned unexpected number of tokens")
	ErrInconsistentOutput  = errors.New("inconsistent transcription output")
)

// TrailingHyphenError is returned for transcribable tokens
// ending with a hyphen. Such a hyphen is ambiguous and the user
// should move it to the beginning of the next token.
type TrailingHyphenError struct {
	Token string
}

func (err *TrailingHyphenError) Error() string {
	return fmt.Sprintf(
		"can't transcribe token ending with hyphen (%q), place hyphen at beginning of next token instead",
		err.Token,
	)
}

func (err *TrailingHyphenError) Unwrap() error {
	return ErrInvalidInput
}

// ---------------------------

type Alphabet string

const (
	AlphabetSAMPA Alphabet = "sampa"
	AlphabetIPA   Alphabet = "ipa"
	AlphabetCS    Alphabet = "cs"
	AlphabetCNC   Alphabet = "cnc"

	DefaultAlphabet = AlphabetSAMPA
)

// Validate tests whether the value is one of known alphabets.
// Please note that the empty value is also considered OK
// (it stands for the DefaultAlphabet).
func (a Alphabet) Validate() error {
	if a == AlphabetSAMPA ||
		a == AlphabetIPA ||
		a == AlphabetCS ||
		a == AlphabetCNC ||
		a == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAlphabet, string(a))
}

func (a Alphabet) String() string {
	return string(a)
}

// ParseAlphabet converts a (case insensitive) alphabet name
// into a validated Alphabet value. Empty string produces DefaultAlphabet.
func ParseAlphabet(s string) (Alphabet, error) {
	ans := Alphabet(strings.ToLower(strings.TrimSpace(s)))
	if err := ans.Validate(); err != nil {
		return ans, err
	}
	if ans == "" {
		return DefaultAlphabet, nil
	}
	return ans, nil
}

// ---------------------------

// Phone is a single phone within a transcribed prosodic unit.
// The Value is rewritten in place by connected speech processes.
type Phone struct {
	Value string

	// WordBoundary marks the last phone of an orthographic word
	WordBoundary bool
}

func (p Phone) String() string {
	return "/" + p.Value + "/"
}

// ---------------------------

// Item is a single element of transcription output. It is either
// a token passed through without any change or a transcribed word
// represented by a sequence of phones.
type Item struct {
	Token  string
	Phones []string
}

func (item Item) IsTranscribed() bool {
	return item.Phones != nil
}

// String renders transcribed items as space separated phones
// in square brackets, other items as the original tokens.
func (item Item) String() string {
	if item.IsTranscribed() {
		return "[" + strings.Join(item.Phones, " ") + "]"
	}
	return item.Token
}

func (item Item) MarshalJSON() ([]byte, error) {
	if item.IsTranscribed() {
		return sonic.Marshal(item.Phones)
	}
	return sonic.Marshal(item.Token)
}

func (item *Item) UnmarshalJSON(data []byte) error {
	var phones []string
	if err := sonic.Unmarshal(data, &phones); err == nil {
		item.Phones = phones
		if item.Phones == nil {
			item.Phones = []string{}
		}
		item.Token = ""
		return nil
	}
	var token string
	if err := sonic.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("failed to unmarshal transcription item: %w", err)
	}
	item.Token = token
	item.Phones = nil
	return nil
}

// Result is a transcription of a phrase. Its length always
// matches the number of input tokens.
type Result []Item

// Transcriptions returns only the transcribed items
// (i.e. with pass-through tokens removed).
func (r Result) Transcriptions() [][]string {
	ans := make([][]string, 0, len(r))
	for _, item := range r {
		if item.IsTranscribed() {
			ans = append(ans, item.Phones)
		}
	}
	return ans
}

func (r Result) String() string {
	var buff strings.Builder
	for i, item := range r {
		if i > 0 {
			buff.WriteString(" ")
		}
		buff.WriteString(item.String())
	}
	return buff.String()
}
