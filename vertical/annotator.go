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

package vertical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"corpy/common"
	"corpy/phonetics"
	"corpy/tagger"

	"github.com/czcorpus/vert-tagextract/v3/proc"
	"github.com/czcorpus/vert-tagextract/v3/ptcount/modders"
	"github.com/rs/zerolog/log"
	"github.com/tomachalek/vertigo/v6"
)

const (
	DfltSentenceStruct = "s"
	DfltMaxNumErrors   = 100

	logProgressEachNthLine = 100000
)

var ErrTooManyParsingErrors = errors.New("too many parsing errors")

// Conf configures annotation of a vertical file
type Conf struct {
	WordColIdx int `json:"wordColIdx"`

	// LemmaColIdx is an index of a column containing lemmas.
	// Negative value means no lemmas are available.
	LemmaColIdx int `json:"lemmaColIdx"`

	// SentenceStruct is a structure whose content is transcribed
	// as a single prosodic unit
	SentenceStruct string `json:"sentenceStruct"`

	// WordModders is a vert-tagextract specification of transformations
	// applied to word values before transcription (e.g. `toLower`)
	WordModders string `json:"wordModders"`

	Alphabet                phonetics.Alphabet `json:"alphabet"`
	Hiatus                  bool               `json:"hiatus"`
	ProsodicBoundarySymbols []string           `json:"prosodicBoundarySymbols"`
	MaxNumErrors            int                `json:"maxNumErrors"`
}

// Stats summarizes an annotation run
type Stats struct {
	NumLines       int `json:"numLines"`
	NumSentences   int `json:"numSentences"`
	NumTokens      int `json:"numTokens"`
	NumTranscribed int `json:"numTranscribed"`
	NumErrors      int `json:"numErrors"`
}

// Record is an annotated token
type Record struct {
	Word          string
	Lemma         string
	Transcription []string
	Line          int
}

func (rec Record) IsTranscribed() bool {
	return rec.Transcription != nil
}

// Sink receives annotated sentences
type Sink interface {
	WriteSentence(records []Record) error
}

// ---------------------------

type sentenceToken struct {
	word  string
	lemma string
	line  int
}

// Annotator is a vertigo.LineProcessor transcribing sentences
// of a vertical file. Each sentence is transcribed as a single
// prosodic unit and the result is passed to a Sink.
type Annotator struct {
	ctx          context.Context
	transcriber  *phonetics.Transcriber
	conf         Conf
	derivations  tagger.Derivations
	wordFn       *modders.StringTransformerChain
	sink         Sink
	currSentence []sentenceToken
	stats        Stats
}

func (ann *Annotator) Stats() Stats {
	return ann.stats
}

func (ann *Annotator) handleProcError(lineNum int, err error) error {
	log.Error().Err(err).Int("lineNumber", lineNum).Msg("processing error")
	ann.stats.NumErrors++
	if ann.stats.NumErrors > ann.conf.MaxNumErrors {
		return ErrTooManyParsingErrors
	}
	return nil
}

func (ann *Annotator) checkStop() error {
	select {
	case s := <-ann.ctx.Done():
		return fmt.Errorf("received stop signal: %v", s)
	default:
	}
	return nil
}

// prepareWord removes trailing hyphens from words containing
// letters as such words cannot be transcribed
func prepareWord(word string, line int) string {
	trimmed := strings.TrimRight(word, "-")
	if trimmed != word && strings.ContainsFunc(trimmed, unicode.IsLetter) {
		log.Debug().
			Str("word", word).
			Int("lineNumber", line).
			Msg("removing trailing hyphen")
		return trimmed
	}
	return word
}

func (ann *Annotator) flushSentence() error {
	if len(ann.currSentence) == 0 {
		return nil
	}
	defer func() { ann.currSentence = ann.currSentence[:0] }()
	ann.stats.NumSentences++
	words := make([]string, len(ann.currSentence))
	tokens := make([]phonetics.Token, len(ann.currSentence))
	for i, tk := range ann.currSentence {
		words[i] = prepareWord(tk.word, tk.line)
		tokens[i] = phonetics.Token{Word: words[i], Lemma: tk.lemma}
	}
	opts := []phonetics.Option{
		phonetics.WithAlphabet(ann.conf.Alphabet),
		phonetics.WithHiatus(ann.conf.Hiatus),
		phonetics.WithProsodicBoundaries(ann.conf.ProsodicBoundarySymbols...),
	}
	if ann.conf.LemmaColIdx >= 0 {
		opts = append(opts, phonetics.WithTagger(tagger.NewSentenceTagger(tokens, ann.derivations)))
	}
	result, err := ann.transcriber.TranscribeTokens(ann.ctx, words, opts...)
	if err != nil {
		return ann.handleProcError(
			ann.currSentence[0].line, fmt.Errorf("failed to transcribe sentence: %w", err))
	}
	records := common.MapSlice(result, func(item phonetics.Item, i int) Record {
		return Record{
			Word:          ann.currSentence[i].word,
			Lemma:         ann.currSentence[i].lemma,
			Transcription: item.Phones,
			Line:          ann.currSentence[i].line,
		}
	})
	for _, rec := range records {
		if rec.IsTranscribed() {
			ann.stats.NumTranscribed++
		}
	}
	if err := ann.sink.WriteSentence(records); err != nil {
		return fmt.Errorf("failed to write annotated sentence: %w", err)
	}
	return nil
}

// ProcToken is a part of vertigo.LineProcessor implementation.
func (ann *Annotator) ProcToken(tk *vertigo.Token, line int, err error) error {
	if err != nil {
		return ann.handleProcError(line, err)
	}
	ann.stats.NumLines = line
	ann.stats.NumTokens++
	stk := sentenceToken{
		word: ann.wordFn.Transform(tk.PosAttrByIndex(ann.conf.WordColIdx)),
		line: line,
	}
	if ann.conf.LemmaColIdx >= 0 {
		stk.lemma = tk.PosAttrByIndex(ann.conf.LemmaColIdx)
	}
	ann.currSentence = append(ann.currSentence, stk)
	if line%logProgressEachNthLine == 0 {
		log.Info().
			Int("numProcLines", line).
			Int("numSentences", ann.stats.NumSentences).
			Msg("annotation progress")
	}
	return nil
}

// ProcStruct is a part of vertigo.LineProcessor implementation.
func (ann *Annotator) ProcStruct(st *vertigo.Structure, line int, err error) error {
	if stopErr := ann.checkStop(); stopErr != nil {
		return stopErr
	}
	if err != nil { // error from the Vertigo parser
		return ann.handleProcError(line, err)
	}
	ann.stats.NumLines = line
	if st.Name == ann.conf.SentenceStruct {
		return ann.flushSentence()
	}
	return nil
}

// ProcStructClose is a part of vertigo.LineProcessor implementation.
func (ann *Annotator) ProcStructClose(st *vertigo.StructureClose, line int, err error) error {
	if stopErr := ann.checkStop(); stopErr != nil {
		return stopErr
	}
	if err != nil { // error from the Vertigo parser
		return ann.handleProcError(line, err)
	}
	ann.stats.NumLines = line
	if st.Name == ann.conf.SentenceStruct {
		return ann.flushSentence()
	}
	return nil
}

// Finish transcribes tokens remaining after the last
// sentence structure (if any).
func (ann *Annotator) Finish() error {
	return ann.flushSentence()
}

// NewAnnotator creates a new annotator. Zero values in conf are
// replaced by defaults. The derivations can be nil.
func NewAnnotator(
	ctx context.Context,
	transcriber *phonetics.Transcriber,
	conf Conf,
	derivations tagger.Derivations,
	sink Sink,
) *Annotator {
	if conf.SentenceStruct == "" {
		conf.SentenceStruct = DfltSentenceStruct
	}
	if conf.MaxNumErrors == 0 {
		conf.MaxNumErrors = DfltMaxNumErrors
	}
	return &Annotator{
		ctx:         ctx,
		transcriber: transcriber,
		conf:        conf,
		derivations: derivations,
		wordFn:      modders.NewStringTransformerChain(conf.WordModders),
		sink:        sink,
	}
}

// AnnotateFiles parses provided vertical files (as one stream)
// and passes them to the annotator.
func AnnotateFiles(ctx context.Context, ann *Annotator, paths ...string) (Stats, error) {
	parserConf := &vertigo.ParserConf{
		StructAttrAccumulator: "nil",
		Encoding:              "utf-8",
		LogProgressEachNth:    1000000,
	}
	vertScanner, err := proc.NewMultiFileScanner(paths...)
	if err != nil {
		return ann.Stats(), fmt.Errorf("failed to annotate vertical: %w", err)
	}
	defer vertScanner.Close()
	if err := vertigo.ParseVerticalFromScanner(ctx, vertScanner, parserConf, ann); err != nil {
		return ann.Stats(), fmt.Errorf("failed to annotate vertical: %w", err)
	}
	if err := ann.Finish(); err != nil {
		return ann.Stats(), fmt.Errorf("failed to annotate vertical: %w", err)
	}
	return ann.Stats(), nil
}
