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

package lexicon

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"corpy/phonetics"
	"corpy/vertical"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	dfltBufferLimit = 100000
)

type entryKey struct {
	word          string
	transcription string
}

// Writer aggregates transcriptions of annotated sentences and
// stores them into a lexicon. It implements vertical.Sink.
// Each Writer instance represents one import run with its own ID.
type Writer struct {
	ctx         context.Context
	storage     *Storage
	alphabet    phonetics.Alphabet
	runID       string
	chunkSize   int
	bufferLimit int
	buffer      map[entryKey]int
	numWritten  int
}

func (w *Writer) RunID() string {
	return w.runID
}

// NumWritten returns number of entries stored so far
// (an entry may be written multiple times during a run).
func (w *Writer) NumWritten() int {
	return w.numWritten
}

func (w *Writer) WriteSentence(records []vertical.Record) error {
	for _, rec := range records {
		if !rec.IsTranscribed() {
			continue
		}
		key := entryKey{
			word:          strings.ToLower(rec.Word),
			transcription: strings.Join(rec.Transcription, " "),
		}
		w.buffer[key]++
	}
	if len(w.buffer) >= w.bufferLimit {
		return w.Flush()
	}
	return nil
}

// Flush stores all the buffered entries
func (w *Writer) Flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(w.buffer))
	for k, freq := range w.buffer {
		entries = append(entries, Entry{
			Word:          k.word,
			Alphabet:      w.alphabet.String(),
			Transcription: k.transcription,
			Freq:          freq,
			RunID:         w.runID,
		})
	}
	slices.SortFunc(entries, func(e1, e2 Entry) int {
		if c := strings.Compare(e1.Word, e2.Word); c != 0 {
			return c
		}
		return strings.Compare(e1.Transcription, e2.Transcription)
	})
	if err := w.storage.Insert(w.ctx, entries, w.chunkSize); err != nil {
		return fmt.Errorf("failed to flush lexicon writer: %w", err)
	}
	w.numWritten += len(entries)
	log.Debug().
		Str("runId", w.runID).
		Int("numEntries", len(entries)).
		Msg("flushed lexicon entries")
	clear(w.buffer)
	return nil
}

func NewWriter(
	ctx context.Context,
	storage *Storage,
	alphabet phonetics.Alphabet,
	chunkSize int,
) (*Writer, error) {
	runID, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("failed to create lexicon writer: %w", err)
	}
	if alphabet == "" {
		alphabet = phonetics.DefaultAlphabet
	}
	return &Writer{
		ctx:         ctx,
		storage:     storage,
		alphabet:    alphabet,
		runID:       runID.String(),
		chunkSize:   chunkSize,
		bufferLimit: dfltBufferLimit,
		buffer:      make(map[entryKey]int),
	}, nil
}
