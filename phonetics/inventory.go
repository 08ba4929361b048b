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
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	PhonesFile        = "phones.tsv"
	Substr2PhonesFile = "substr2phones.tsv"
	VoicingPairsFile  = "voicing_pairs.tsv"
	ExceptionsFile    = "exceptions.tsv"
)

//go:embed data/*.tsv
var embeddedTables embed.FS

// Inventory contains all the static tables driving the transcription.
// Once loaded, it is never modified.
type Inventory struct {
	Phones        PhoneTable
	Substr2Phones map[string][]string
	Voicing       VoicingPairs
	Exceptions    []ExceptionRule
}

// LoadInventory loads all the tables from the provided readers.
// Any inconsistency (e.g. a phone referenced but not defined
// in the phones table) produces an error.
func LoadInventory(phones, substr2phones, voicingPairs, exceptions io.Reader) (*Inventory, error) {
	phoneTable, err := LoadPhones(phones)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	s2p, err := LoadSubstr2Phones(substr2phones, phoneTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	voicing, err := LoadVoicingPairs(voicingPairs, phoneTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	rules, err := LoadExceptions(exceptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	log.Info().
		Int("phones", len(phoneTable)).
		Int("substrings", len(s2p)).
		Int("voicingPairs", len(voicing.DevoicedToVoiced)).
		Int("exceptions", len(rules)).
		Msg("loaded phonetic inventory")
	return &Inventory{
		Phones:        phoneTable,
		Substr2Phones: s2p,
		Voicing:       voicing,
		Exceptions:    rules,
	}, nil
}

// LoadInventoryFromDir loads the tables from a directory containing
// files named PhonesFile, Substr2PhonesFile, VoicingPairsFile
// and ExceptionsFile.
func LoadInventoryFromDir(dirPath string) (*Inventory, error) {
	names := []string{PhonesFile, Substr2PhonesFile, VoicingPairsFile, ExceptionsFile}
	readers := make([]io.Reader, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dirPath, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory from %s: %w", dirPath, err)
		}
		readers[i] = bytes.NewReader(data)
	}
	return LoadInventory(readers[0], readers[1], readers[2], readers[3])
}

func loadEmbeddedInventory() (*Inventory, error) {
	names := []string{PhonesFile, Substr2PhonesFile, VoicingPairsFile, ExceptionsFile}
	readers := make([]io.Reader, len(names))
	for i, name := range names {
		data, err := embeddedTables.ReadFile("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded inventory: %w", err)
		}
		readers[i] = bytes.NewReader(data)
	}
	return LoadInventory(readers[0], readers[1], readers[2], readers[3])
}

// DefaultInventory returns the inventory built from the tables
// embedded in the binary. The tables are loaded just once.
var DefaultInventory = sync.OnceValues(loadEmbeddedInventory)
