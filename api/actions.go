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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"corpy/cnf"
	"corpy/general"
	"corpy/lexicon"
	"corpy/phonetics"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	dfltLexiconSearchLimit = 20
	maxLexiconSearchLimit  = 1000
)

var ErrLexiconNotAvailable = errors.New("pronunciation lexicon not available")

// LexiconSearcher finds stored pronunciations of words
type LexiconSearcher interface {
	Search(ctx context.Context, word, alphabet string) ([]lexicon.Entry, error)
}

// TranscribeArgs are arguments of the POST variant
// of the transcription action. Either Text or Tokens
// must be provided.
type TranscribeArgs struct {
	Text               string   `json:"text"`
	Tokens             []string `json:"tokens"`
	Alphabet           string   `json:"alphabet"`
	Hiatus             *bool    `json:"hiatus"`
	ProsodicBoundaries []string `json:"prosodicBoundaries"`
}

type transcribeResponse struct {
	Alphabet phonetics.Alphabet `json:"alphabet"`
	Hiatus   bool               `json:"hiatus"`
	Items    phonetics.Result   `json:"items"`
}

type Actions struct {
	version     general.VersionInfo
	conf        *cnf.Conf
	transcriber *phonetics.Transcriber

	// tagger is optional
	tagger phonetics.Tagger

	// lexicon is optional
	lexicon LexiconSearcher
}

// RootAction is just an information action about the service
func (a *Actions) RootAction(ctx *gin.Context) {
	host, err := os.Hostname()
	if err != nil {
		host = "#failed_to_obtain"
	}
	ans := struct {
		Name      string               `json:"name"`
		Version   general.VersionInfo  `json:"version"`
		Host      string               `json:"host"`
		ConfPath  string               `json:"confPath"`
		Alphabets []phonetics.Alphabet `json:"alphabets"`
		Lexicon   bool                 `json:"lexicon"`
	}{
		Name:    "CorPy - rule-based phonetic transcription of Czech",
		Version: a.version,
		Host:    host,
		Alphabets: []phonetics.Alphabet{
			phonetics.AlphabetSAMPA,
			phonetics.AlphabetIPA,
			phonetics.AlphabetCS,
			phonetics.AlphabetCNC,
		},
		ConfPath: a.conf.GetSourcePath(),
		Lexicon:  a.lexicon != nil,
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (a *Actions) transcriptionOptions(
	alphabet phonetics.Alphabet,
	hiatus bool,
	boundaries []string,
) []phonetics.Option {
	ans := []phonetics.Option{
		phonetics.WithAlphabet(alphabet),
		phonetics.WithHiatus(hiatus),
		phonetics.WithProsodicBoundaries(boundaries...),
	}
	if a.tagger != nil {
		ans = append(ans, phonetics.WithTagger(a.tagger))
	}
	return ans
}

func (a *Actions) alphabetOrDefault(v string) (phonetics.Alphabet, error) {
	if v == "" {
		return a.conf.Phonetics.DefaultAlphabet, nil
	}
	return phonetics.ParseAlphabet(v)
}

func (a *Actions) respondWithTranscriptionError(ctx *gin.Context, err error) {
	if errors.Is(err, phonetics.ErrInvalidInput) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)

	} else if errors.Is(err, phonetics.ErrUnexpectedSubstring) {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusUnprocessableEntity)

	} else {
		log.Error().Err(err).Msg("failed to transcribe")
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
	}
}

// Transcribe transcribes a phrase passed via the `q` URL argument.
// Optional arguments are `alphabet`, `hiatus` (0/1) and repeatable
// `boundary` specifying prosodic boundary symbols.
func (a *Actions) Transcribe(ctx *gin.Context) {
	q := ctx.Query("q")
	if strings.TrimSpace(q) == "" {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("missing or empty argument `q`"), http.StatusBadRequest)
		return
	}
	alphabet, err := a.alphabetOrDefault(ctx.Query("alphabet"))
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	hiatus := a.conf.Phonetics.Hiatus
	if v := ctx.Query("hiatus"); v != "" {
		hiatus, err = strconv.ParseBool(v)
		if err != nil {
			uniresp.RespondWithErrorJSON(
				ctx, fmt.Errorf("invalid value of `hiatus`: %s", v), http.StatusBadRequest)
			return
		}
	}
	boundaries := a.conf.Phonetics.ProsodicBoundarySymbols
	if v := ctx.QueryArray("boundary"); len(v) > 0 {
		boundaries = v
	}
	ans, err := a.transcriber.Transcribe(
		ctx, q, a.transcriptionOptions(alphabet, hiatus, boundaries)...)
	if err != nil {
		a.respondWithTranscriptionError(ctx, err)
		return
	}
	uniresp.WriteJSONResponse(
		ctx.Writer, transcribeResponse{Alphabet: alphabet, Hiatus: hiatus, Items: ans})
}

// TranscribeJSON is a POST variant of Transcribe which also accepts
// an already tokenized phrase.
func (a *Actions) TranscribeJSON(ctx *gin.Context) {
	var args TranscribeArgs
	if err := ctx.ShouldBindJSON(&args); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}
	if args.Text != "" && args.Tokens != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("`text` and `tokens` are mutually exclusive"), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(args.Text) == "" && args.Tokens == nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("missing `text` or `tokens`"), http.StatusBadRequest)
		return
	}
	alphabet, err := a.alphabetOrDefault(args.Alphabet)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	hiatus := a.conf.Phonetics.Hiatus
	if args.Hiatus != nil {
		hiatus = *args.Hiatus
	}
	boundaries := a.conf.Phonetics.ProsodicBoundarySymbols
	if args.ProsodicBoundaries != nil {
		boundaries = args.ProsodicBoundaries
	}
	opts := a.transcriptionOptions(alphabet, hiatus, boundaries)
	var ans phonetics.Result
	if args.Tokens != nil {
		ans, err = a.transcriber.TranscribeTokens(ctx, args.Tokens, opts...)

	} else {
		ans, err = a.transcriber.Transcribe(ctx, args.Text, opts...)
	}
	if err != nil {
		a.respondWithTranscriptionError(ctx, err)
		return
	}
	uniresp.WriteJSONResponse(
		ctx.Writer, transcribeResponse{Alphabet: alphabet, Hiatus: hiatus, Items: ans})
}

// Phones lists the phone inventory. With the `alphabet` argument,
// only symbols of the alphabet are listed.
func (a *Actions) Phones(ctx *gin.Context) {
	var alphabet phonetics.Alphabet
	if v := ctx.Query("alphabet"); v != "" {
		var err error
		alphabet, err = phonetics.ParseAlphabet(v)
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
			return
		}
	}
	table := a.transcriber.Inventory().Phones
	phones := make([]string, 0, len(table))
	for k := range table {
		phones = append(phones, k)
	}
	slices.Sort(phones)
	if alphabet != "" {
		ans := make(map[string]string)
		for _, phone := range phones {
			ans[phone] = table.Symbol(phone, alphabet)
		}
		uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"alphabet": alphabet, "phones": ans})
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"phones": table})
}

// LexiconSearch finds pronunciations of a word attested
// in annotated corpora.
func (a *Actions) LexiconSearch(ctx *gin.Context) {
	if a.lexicon == nil {
		uniresp.RespondWithErrorJSON(ctx, ErrLexiconNotAvailable, http.StatusServiceUnavailable)
		return
	}
	word := ctx.Param("word")
	var alphabet phonetics.Alphabet
	if v := ctx.Query("alphabet"); v != "" {
		var err error
		alphabet, err = phonetics.ParseAlphabet(v)
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
			return
		}
	}
	limit, ok := unireq.GetURLIntArgOrFail(ctx, "limit", dfltLexiconSearchLimit)
	if !ok {
		return
	}
	if limit <= 0 || limit > maxLexiconSearchLimit {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("limit must be from interval [1, %d]", maxLexiconSearchLimit),
			http.StatusBadRequest,
		)
		return
	}
	items, err := a.lexicon.Search(ctx, word, alphabet.String())
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	ans := map[string]any{
		"matches": items[:min(limit, len(items))],
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// NewActions is the default factory for Actions. Both the tagger
// and the lexicon may be nil.
func NewActions(
	conf *cnf.Conf,
	version general.VersionInfo,
	transcriber *phonetics.Transcriber,
	tagger phonetics.Tagger,
	lex LexiconSearcher,
) *Actions {
	return &Actions{
		conf:        conf,
		version:     version,
		transcriber: transcriber,
		tagger:      tagger,
		lexicon:     lex,
	}
}
