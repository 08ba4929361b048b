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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	commentPrefix = "#"

	// phones with bespoke assimilation rules, see assimilateVoicing
	voicedRPhone    = "P\\"
	devoicedRPhone  = "Q\\"
	labiodentalFric = "v"
)

var (
	ErrUnknownPhone   = errors.New("unknown phone")
	ErrMalformedTable = errors.New("malformed table")
)

// PhoneTable maps a phone (in SAMPA) to its symbols
// in all the supported alphabets.
type PhoneTable map[string]map[Alphabet]string

// Contains tests whether the phone is defined in the table.
func (pt PhoneTable) Contains(phone string) bool {
	_, ok := pt[phone]
	return ok
}

// Symbol returns a symbol representing the phone in the provided
// alphabet. For unknown phones (or alphabets), the phone itself
// is returned.
func (pt PhoneTable) Symbol(phone string, alphabet Alphabet) string {
	v, ok := pt[phone][alphabet]
	if !ok {
		return phone
	}
	return v
}

// VoicingPairs describes voiced/voiceless counterparts of phones
// along with the sets of phones triggering assimilation of voicing
// of a preceding phone.
type VoicingPairs struct {
	DevoicedToVoiced map[string]string
	VoicedToDevoiced map[string]string
	TriggerVoicing   map[string]bool
	TriggerDevoicing map[string]bool
}

func (vp VoicingPairs) Voiced(phone string) string {
	if v, ok := vp.DevoicedToVoiced[phone]; ok {
		return v
	}
	return phone
}

func (vp VoicingPairs) Devoiced(phone string) string {
	if v, ok := vp.VoicedToDevoiced[phone]; ok {
		return v
	}
	return phone
}

// tsvTable is a raw tab-separated table with its header
// split off and comment lines removed.
type tsvTable struct {
	header []string
	rows   [][]string
	// lineNums maps rows to lines of the source
	lineNums []int
}

func readTSV(r io.Reader) (tsvTable, error) {
	var ans tsvTable
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNum == 1 {
			ans.header = strings.Split(line, "\t")
			continue
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
			continue
		}
		ans.rows = append(ans.rows, strings.Split(line, "\t"))
		ans.lineNums = append(ans.lineNums, lineNum)
	}
	if err := scanner.Err(); err != nil {
		return ans, fmt.Errorf("failed to read table: %w", err)
	}
	if len(ans.header) == 0 {
		return ans, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	return ans, nil
}

// LoadPhones reads a table with the first column containing phones
// and the other ones containing symbols of alphabets named in the header.
func LoadPhones(r io.Reader) (PhoneTable, error) {
	tbl, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load phones: %w", err)
	}
	alphabets := make([]Alphabet, 0, len(tbl.header)-1)
	for _, h := range tbl.header[1:] {
		alphabets = append(alphabets, Alphabet(strings.ToLower(h)))
	}
	ans := make(PhoneTable)
	for _, row := range tbl.rows {
		key := row[0]
		val, ok := ans[key]
		if !ok {
			val = make(map[Alphabet]string)
			ans[key] = val
		}
		for i, symbol := range row[1:] {
			if i >= len(alphabets) {
				break
			}
			val[alphabets[i]] = symbol
		}
	}
	return ans, nil
}

// LoadSubstr2Phones reads a table mapping orthographic substrings
// to sequences of (space separated) phones. All the phones must be
// known to the `allowed` table.
func LoadSubstr2Phones(r io.Reader, allowed PhoneTable) (map[string][]string, error) {
	tbl, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load substr2phones: %w", err)
	}
	ans := make(map[string][]string)
	for i, row := range tbl.rows {
		if len(row) != 2 {
			return nil, fmt.Errorf(
				"failed to load substr2phones: %w: line %d: expected 2 fields, got %d",
				ErrMalformedTable, tbl.lineNums[i], len(row))
		}
		substr := row[0]
		for _, phone := range strings.Fields(row[1]) {
			if !allowed.Contains(phone) {
				return nil, fmt.Errorf(
					"failed to load substr2phones: %w %q (line %d)", ErrUnknownPhone, phone, tbl.lineNums[i])
			}
			ans[substr] = append(ans[substr], phone)
		}
	}
	return ans, nil
}

// LoadVoicingPairs reads a table of devoiced<TAB>voiced phone pairs.
// The sets of triggering phones exclude /v/ and /P\/ (they do not
// trigger voicing) and /Q\/ (it does not trigger devoicing).
func LoadVoicingPairs(r io.Reader, allowed PhoneTable) (VoicingPairs, error) {
	ans := VoicingPairs{
		DevoicedToVoiced: make(map[string]string),
		VoicedToDevoiced: make(map[string]string),
		TriggerVoicing:   make(map[string]bool),
		TriggerDevoicing: make(map[string]bool),
	}
	tbl, err := readTSV(r)
	if err != nil {
		return ans, fmt.Errorf("failed to load voicing pairs: %w", err)
	}
	for i, row := range tbl.rows {
		if len(row) != 2 {
			return ans, fmt.Errorf(
				"failed to load voicing pairs: %w: line %d: expected 2 fields, got %d",
				ErrMalformedTable, tbl.lineNums[i], len(row))
		}
		devoiced, voiced := row[0], row[1]
		for _, phone := range row {
			if !allowed.Contains(phone) {
				return ans, fmt.Errorf(
					"failed to load voicing pairs: %w %q (line %d)", ErrUnknownPhone, phone, tbl.lineNums[i])
			}
		}
		ans.DevoicedToVoiced[devoiced] = voiced
		ans.VoicedToDevoiced[voiced] = devoiced
	}
	for voiced := range ans.VoicedToDevoiced {
		ans.TriggerVoicing[voiced] = true
	}
	delete(ans.TriggerVoicing, labiodentalFric)
	delete(ans.TriggerVoicing, voicedRPhone)
	for devoiced := range ans.DevoicedToVoiced {
		ans.TriggerDevoicing[devoiced] = true
	}
	delete(ans.TriggerDevoicing, devoicedRPhone)
	return ans, nil
}
