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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TSVSink writes annotated tokens as tab separated lines
// `word<TAB>transcription` where phones of a transcription are
// separated by spaces and non-transcribed tokens have the second
// column empty. Sentences are separated by an empty line.
type TSVSink struct {
	w *bufio.Writer
}

func (sink *TSVSink) WriteSentence(records []Record) error {
	for _, rec := range records {
		if _, err := fmt.Fprintf(sink.w, "%s\t%s\n", rec.Word, strings.Join(rec.Transcription, " ")); err != nil {
			return fmt.Errorf("failed to write TSV record: %w", err)
		}
	}
	if _, err := sink.w.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write TSV record: %w", err)
	}
	return nil
}

func (sink *TSVSink) Flush() error {
	return sink.w.Flush()
}

func NewTSVSink(w io.Writer) *TSVSink {
	return &TSVSink{w: bufio.NewWriter(w)}
}

// ---------------------------

// MultiSink passes sentences to all the contained sinks
type MultiSink []Sink

func (ms MultiSink) WriteSentence(records []Record) error {
	for _, sink := range ms {
		if err := sink.WriteSentence(records); err != nil {
			return err
		}
	}
	return nil
}
