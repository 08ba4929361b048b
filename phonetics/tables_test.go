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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhones = "SAMPA\tIPA\tCS\tCNC\n" +
	"# consonants\n" +
	"p\tp\tp\tp\n" +
	"b\tb\tb\tb\n" +
	"\n" +
	"S\tʃ\tš\tš\n" +
	"Z\tʒ\tž\tž\n" +
	"P\\\tr̝\tř\tř\n" +
	"Q\\\tr̝̊\tř̭\tŘ\n" +
	"v\tv\tv\tv\n" +
	"f\tf\tf\tf\n"

func TestLoadPhones(t *testing.T) {
	tbl, err := LoadPhones(strings.NewReader(testPhones))
	assert.NoError(t, err)
	assert.Len(t, tbl, 8)
	assert.True(t, tbl.Contains("S"))
	assert.False(t, tbl.Contains("#"))
	assert.Equal(t, "ʃ", tbl.Symbol("S", AlphabetIPA))
	assert.Equal(t, "Ř", tbl.Symbol("Q\\", AlphabetCNC))
	assert.Equal(t, "x", tbl.Symbol("x", AlphabetCS))
}

func TestLoadSubstr2Phones(t *testing.T) {
	tbl, err := LoadPhones(strings.NewReader(testPhones))
	require.NoError(t, err)
	s2p, err := LoadSubstr2Phones(strings.NewReader("substr\tphones\nš\tS\nř\tP\\\npf\tp f\n"), tbl)
	assert.NoError(t, err)
	assert.Equal(t, []string{"p", "f"}, s2p["pf"])
	assert.Equal(t, []string{"P\\"}, s2p["ř"])
}

func TestLoadSubstr2PhonesUnknownPhone(t *testing.T) {
	tbl, err := LoadPhones(strings.NewReader(testPhones))
	require.NoError(t, err)
	_, err = LoadSubstr2Phones(strings.NewReader("substr\tphones\nch\tX\n"), tbl)
	assert.ErrorIs(t, err, ErrUnknownPhone)
	_, err = LoadSubstr2Phones(strings.NewReader("substr\tphones\nch\n"), tbl)
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestLoadVoicingPairs(t *testing.T) {
	tbl, err := LoadPhones(strings.NewReader(testPhones))
	require.NoError(t, err)
	vp, err := LoadVoicingPairs(
		strings.NewReader("devoiced\tvoiced\np\tb\nS\tZ\nf\tv\nQ\\\tP\\\n"), tbl)
	assert.NoError(t, err)
	assert.Equal(t, "b", vp.Voiced("p"))
	assert.Equal(t, "S", vp.Devoiced("Z"))
	assert.Equal(t, "a", vp.Voiced("a"))
	assert.Equal(t, map[string]bool{"b": true, "Z": true}, vp.TriggerVoicing)
	assert.Equal(t, map[string]bool{"p": true, "S": true, "f": true}, vp.TriggerDevoicing)
}

func TestLoadVoicingPairsUnknownPhone(t *testing.T) {
	tbl, err := LoadPhones(strings.NewReader(testPhones))
	require.NoError(t, err)
	_, err = LoadVoicingPairs(strings.NewReader("devoiced\tvoiced\nk\tg\n"), tbl)
	assert.ErrorIs(t, err, ErrUnknownPhone)
}

func TestDefaultInventoryIsConsistent(t *testing.T) {
	inv, err := DefaultInventory()
	assert.NoError(t, err)
	for substr, phones := range inv.Substr2Phones {
		for _, p := range phones {
			assert.True(t, inv.Phones.Contains(p), "substring %s", substr)
		}
	}
	for _, alphabet := range []Alphabet{AlphabetSAMPA, AlphabetIPA, AlphabetCS, AlphabetCNC} {
		for phone, symbols := range inv.Phones {
			assert.Contains(t, symbols, alphabet, "phone %s", phone)
		}
	}
	assert.Equal(t, "P\\", inv.Voicing.Voiced("Q\\"))
	assert.False(t, inv.Voicing.TriggerVoicing["v"])
	assert.False(t, inv.Voicing.TriggerVoicing["P\\"])
	assert.False(t, inv.Voicing.TriggerDevoicing["Q\\"])
	assert.True(t, inv.Voicing.TriggerDevoicing["t"])
	assert.NotEmpty(t, inv.Exceptions)

	inv2, err := DefaultInventory()
	assert.NoError(t, err)
	assert.Same(t, inv, inv2)
}

func TestLoadInventoryFromDir(t *testing.T) {
	inv, err := LoadInventoryFromDir("data")
	assert.NoError(t, err)
	assert.True(t, inv.Phones.Contains("Q\\"))

	_, err = LoadInventoryFromDir("nonexistent")
	assert.Error(t, err)
}

func TestParseAlphabet(t *testing.T) {
	a, err := ParseAlphabet("IPA")
	assert.NoError(t, err)
	assert.Equal(t, AlphabetIPA, a)
	a, err = ParseAlphabet("")
	assert.NoError(t, err)
	assert.Equal(t, DefaultAlphabet, a)
	_, err = ParseAlphabet("foo")
	assert.ErrorIs(t, err, ErrUnknownAlphabet)
}
