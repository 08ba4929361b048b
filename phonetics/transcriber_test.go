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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranscriber(t *testing.T) *Transcriber {
	inv, err := DefaultInventory()
	require.NoError(t, err)
	tr, err := NewTranscriber(inv)
	require.NoError(t, err)
	return tr
}

// ph creates a transcribed item from space separated phones
func ph(phones string) Item {
	return Item{Phones: strings.Fields(phones)}
}

func tok(token string) Item {
	return Item{Token: token}
}

func transcribeOne(t *testing.T, tr *Transcriber, word string, opts ...Option) string {
	ans, err := tr.Transcribe(context.Background(), word, opts...)
	require.NoError(t, err)
	require.Len(t, ans, 1)
	return strings.Join(ans[0].Phones, " ")
}

func TestVoicingAssimilationAcrossWords(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "máš hlad")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: Z"), ph("h\\ l a t")}, ans)
}

func TestAlphabets(t *testing.T) {
	tr := newTestTranscriber(t)
	ctx := context.Background()

	ans, err := tr.Transcribe(ctx, "máš hlad", WithAlphabet(AlphabetIPA))
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m aː ʒ"), ph("ɦ l a t")}, ans)

	ans, err = tr.Transcribe(ctx, "máš hlad", WithAlphabet("CS"))
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m á ž"), ph("h l a t")}, ans)

	ans, err = tr.Transcribe(ctx, "máš hlad", WithAlphabet(AlphabetCNC))
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m á ž"), ph("h l a t")}, ans)
}

func TestUnknownAlphabet(t *testing.T) {
	tr := newTestTranscriber(t)
	_, err := tr.Transcribe(context.Background(), "máš hlad", WithAlphabet("xsampa"))
	assert.ErrorIs(t, err, ErrUnknownAlphabet)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRAssimilation(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "p a P\\ a: t", transcribeOne(t, tr, "pařát"))
	assert.Equal(t, "p Q\\ a: t", transcribeOne(t, tr, "přát"))
	assert.Equal(t, "h\\ P\\ a: t", transcribeOne(t, tr, "hřát"))
}

func TestHiatus(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "h\\ I a: t", transcribeOne(t, tr, "hiát"))
	assert.Equal(t, "h\\ I j a: t", transcribeOne(t, tr, "hiát", WithHiatus(true)))
}

func TestNasalAssimilation(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "t r a F v a j", transcribeOne(t, tr, "tramvaj"))
	assert.Equal(t, "k o N g o", transcribeOne(t, tr, "kongo"))
}

func TestDuplicateGraphemes(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "d E J E", transcribeOne(t, tr, "denně"))
	assert.Equal(t, "p o o t E v P\\ i: t", transcribeOne(t, tr, "pootevřít"))
	assert.Equal(t, "n E E g z I s t o v a l", transcribeOne(t, tr, "neexistoval"))
	assert.Equal(t, "m u z E E m", transcribeOne(t, tr, "muzeem"))
	assert.Equal(t, "a:", transcribeOne(t, tr, "áá"))
}

func TestDegemination(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "d r a S i:", transcribeOne(t, tr, "dražší"))

	ans, err := tr.Transcribe(context.Background(), "t t")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("t"), ph("t")}, ans)
}

func TestExceptions(t *testing.T) {
	tr := newTestTranscriber(t)
	tests := []struct {
		word     string
		expected string
	}{
		{"cyklistický", "t_s I k l I s t I t_s k i:"},
		{"cyklisti", "t_s I k l I s c I"},
		{"necyklistický", "n E t_s I k l I s t I t_s k i:"},
		{"necyklisti", "n E t_s I k l I s c I"},
		{"komunita", "k o m u n I t a"},
		{"komunisti", "k o m u n I s c I"},
		{"komunistický", "k o m u n I s t I t_s k i:"},
		{"tipec", "c I p E t_s"},
		{"tipovat", "t I p o v a t"},
		{"franco", "f r a N k o"},
		{"francouz", "f r a n t_s o_u s"},
		{"tbilisi", "t b I l I s I"},
		{"používat", "p o u Z i: v a t"},
		{"využívat", "v I u Z i: v a t"},
		{"odděl", "o d J\\ E l"},
		{"odtáhni", "o t t a: h\\ J I"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, transcribeOne(t, tr, test.word), "word: %s", test.word)
	}
}

func TestExceptionContiguity(t *testing.T) {
	tr := newTestTranscriber(t)
	assert.Equal(t, "a n t I k o m u n I s t a", transcribeOne(t, tr, "antikomunista"))
	assert.Equal(t, "a n t I f o o k o m u J I s t a", transcribeOne(t, tr, "antiFOOkomunista"))
}

func TestUserHyphenBlocksInteraction(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "d-štít")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("d S c i: t")}, ans)
}

func TestTrailingHyphen(t *testing.T) {
	tr := newTestTranscriber(t)
	_, err := tr.Transcribe(context.Background(), "máš- hlad")
	var hyphErr *TrailingHyphenError
	assert.ErrorAs(t, err, &hyphErr)
	assert.Equal(t, "máš-", hyphErr.Token)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "máš-")
}

func TestPassThroughTokens(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "máš , hlad ?")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: Z"), tok(","), ph("h\\ l a t"), tok("?")}, ans)
	assert.Equal(t, "[m a: Z] , [h\\ l a t] ?", ans.String())
}

func TestProsodicBoundaries(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "máš ? hlad", WithProsodicBoundaries("?"))
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: S"), tok("?"), ph("h\\ l a t")}, ans)

	ans, err = tr.Transcribe(context.Background(), "máš ? hlad")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: Z"), tok("?"), ph("h\\ l a t")}, ans)
}

func TestLiteralHyphens(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "máš - hlad? ---")
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: S"), tok("-"), tok("hlad?"), tok("---")}, ans)
}

func TestTranscribeTokens(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.TranscribeTokens(context.Background(), []string{"máš", "hlad"})
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: Z"), ph("h\\ l a t")}, ans)

	// decomposed input is normalized
	ans, err = tr.TranscribeTokens(context.Background(), []string{"ma\u0301s\u030c"})
	assert.NoError(t, err)
	assert.Equal(t, Result{ph("m a: S")}, ans)

	ans, err = tr.TranscribeTokens(context.Background(), []string{})
	assert.NoError(t, err)
	assert.Len(t, ans, 0)

	_, err = tr.TranscribeTokens(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEmptyPhrase(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Len(t, ans, 0)
}

func TestTokenCountIsPreserved(t *testing.T) {
	tr := newTestTranscriber(t)
	phrase := "Když jsem přišel , 3 lidé už odcházeli ... no a - co ?"
	ans, err := tr.Transcribe(context.Background(), phrase)
	assert.NoError(t, err)
	assert.Len(t, ans, len(strings.Fields(phrase)))
}

func TestDeterminism(t *testing.T) {
	tr := newTestTranscriber(t)
	phrase := "antikomunista používá odtáhni v Tbilisi"
	ans1, err := tr.Transcribe(context.Background(), phrase, WithHiatus(true))
	assert.NoError(t, err)
	ans2, err := tr.Transcribe(context.Background(), phrase, WithHiatus(true))
	assert.NoError(t, err)
	assert.Equal(t, ans1, ans2)
}

func TestCancelledContext(t *testing.T) {
	tr := newTestTranscriber(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Transcribe(ctx, "máš hlad")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnexpectedSubstring(t *testing.T) {
	tr := newTestTranscriber(t)
	_, err := tr.Transcribe(context.Background(), "αβγ")
	assert.ErrorIs(t, err, ErrUnexpectedSubstring)
}

func TestItemJSON(t *testing.T) {
	tr := newTestTranscriber(t)
	ans, err := tr.Transcribe(context.Background(), "máš , hlad")
	require.NoError(t, err)
	data, err := ans[0].MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `["m", "a:", "Z"]`, string(data))
	data, err = ans[1].MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `","`, string(data))

	var item Item
	assert.NoError(t, item.UnmarshalJSON([]byte(`["h\\", "l"]`)))
	assert.Equal(t, ph("h\\ l"), item)
	assert.NoError(t, item.UnmarshalJSON([]byte(`"?"`)))
	assert.Equal(t, tok("?"), item)
}
