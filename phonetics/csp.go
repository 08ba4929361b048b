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

// cspEngine emulates connected speech processes within
// a prosodic unit, including across word boundaries.
type cspEngine struct {
	voicing VoicingPairs
}

// assimilateVoicing performs (mostly regressive) assimilation of voicing.
// The phones are processed from right to left so the assimilation can
// propagate through consonant clusters. The /P\/ phone also assimilates
// progressively to a preceding voiceless consonant.
func (ce *cspEngine) assimilateVoicing(phones []Phone) {
	sentinel := Phone{}
	prev := &sentinel
	for i := len(phones) - 1; i >= 0; i-- {
		curr := &phones[i]
		if ce.voicing.TriggerVoicing[prev.Value] {
			curr.Value = ce.voicing.Voiced(curr.Value)

		} else if curr.WordBoundary || ce.voicing.TriggerDevoicing[prev.Value] {
			curr.Value = ce.voicing.Devoiced(curr.Value)

		} else if prev.Value == voicedRPhone && ce.voicing.TriggerDevoicing[curr.Value] {
			prev.Value = devoicedRPhone
		}
		prev = curr
	}
}

func isShortVowel(value string) bool {
	switch value {
	case "a", "E", "I", "o", "u":
		return true
	}
	return false
}

func isHighFrontVowel(value string) bool {
	return len(value) > 0 && (value[0] == 'I' || value[0] == 'i')
}

func isVowel(value string) bool {
	if len(value) == 0 {
		return false
	}
	switch value[0] {
	case 'a', 'E', 'I', 'o', 'u', 'i':
		return true
	}
	return false
}

// applyOtherProcesses performs a forward pass handling nasal place
// assimilation, degemination, removal of blocking phones and
// (optionally) insertion of a glide in hiatus.
func (ce *cspEngine) applyOtherProcesses(phones []Phone, hiatus bool) []Phone {
	ans := make([]Phone, 0, len(phones))
	for i := range phones {
		curr := phones[i]
		var next Phone
		if i+1 < len(phones) {
			next = phones[i+1]
		}
		switch {
		case curr.Value == "n" && (next.Value == "k" || next.Value == "g"):
			curr.Value = "N"
		case curr.Value == "m" && (next.Value == "f" || next.Value == "v"):
			curr.Value = "F"
		// no degemination across word boundaries (currently)
		case curr.Value == next.Value && !isShortVowel(curr.Value) && !curr.WordBoundary:
			continue
		case curr.Value == BlockingPhone:
			continue
		}
		ans = append(ans, curr)
		if hiatus && isHighFrontVowel(curr.Value) && isVowel(next.Value) {
			ans = append(ans, Phone{Value: glidePhone})
		}
	}
	return ans
}
