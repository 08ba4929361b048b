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
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/rexplorer/parser"
)

const (
	AttrWord  = "word"
	AttrLemma = "lemma"
)

// Columns specifies vertical columns (positional attributes)
// needed for annotation. Missing columns have value -1.
type Columns struct {
	Word  int `json:"word"`
	Lemma int `json:"lemma"`
}

// InferColumns finds indices of word and lemma columns based
// on a corpus registry file. Dynamic attributes are skipped
// as they are not present in verticals.
func InferColumns(regPath string) (Columns, error) {
	ans := Columns{
		Word:  -1,
		Lemma: -1,
	}
	regBytes, err := os.ReadFile(regPath)
	if err != nil {
		return ans, fmt.Errorf("failed to infer vertical columns: %w", err)
	}
	doc, err := parser.ParseRegistryBytes(filepath.Base(regPath), regBytes)
	if err != nil {
		return ans, fmt.Errorf("failed to infer vertical columns: %w", err)
	}
	var i int
	for _, attr := range doc.PosAttrs {
		if attr.GetProperty("DYNAMIC") == "" {
			switch attr.Name {
			case AttrWord:
				ans.Word = i
			case AttrLemma:
				ans.Lemma = i
			}
			i++
		}
	}
	if ans.Word < 0 {
		return ans, fmt.Errorf("failed to infer vertical columns: attribute %s not found", AttrWord)
	}
	return ans, nil
}
