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
	"testing"

	"corpy/phonetics"
	"corpy/vertical"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAggregates(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()
	w, err := NewWriter(ctx, s, phonetics.AlphabetSAMPA, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, w.RunID())

	require.NoError(t, w.WriteSentence([]vertical.Record{
		{Word: "Led", Transcription: []string{"l", "E", "t"}},
		{Word: ",", Transcription: nil},
		{Word: "led", Transcription: []string{"l", "E", "t"}},
	}))
	require.NoError(t, w.WriteSentence([]vertical.Record{
		{Word: "led", Transcription: []string{"l", "E", "t"}},
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, w.NumWritten())

	ans, err := s.Search(ctx, "led", "sampa")
	require.NoError(t, err)
	require.Len(t, ans, 1)
	assert.Equal(t, 3, ans[0].Freq)
	assert.Equal(t, w.RunID(), ans[0].RunID)

	ans, err = s.Search(ctx, ",", "")
	require.NoError(t, err)
	assert.Empty(t, ans)
}

func TestWriterAutoFlush(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()
	w, err := NewWriter(ctx, s, "", 0)
	require.NoError(t, err)
	w.bufferLimit = 2

	require.NoError(t, w.WriteSentence([]vertical.Record{
		{Word: "hrad", Transcription: []string{"h", "r", "a", "t"}},
		{Word: "led", Transcription: []string{"l", "E", "t"}},
	}))
	assert.Equal(t, 2, w.NumWritten())
	assert.Empty(t, w.buffer)

	ans, err := s.Search(ctx, "hrad", string(phonetics.DefaultAlphabet))
	require.NoError(t, err)
	assert.Len(t, ans, 1)
}

func TestWriterFlushEmpty(t *testing.T) {
	s := openTestStorage(t)
	w, err := NewWriter(context.Background(), s, phonetics.AlphabetIPA, 0)
	require.NoError(t, err)
	assert.NoError(t, w.Flush())
	assert.Equal(t, 0, w.NumWritten())
}
