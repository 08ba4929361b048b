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

package common

// LCS describes the longest common substring of two strings.
// All the values are in runes (code points), not bytes.
type LCS struct {
	Start1 int `json:"start1"`
	Start2 int `json:"start2"`
	Length int `json:"length"`
}

// Substring1 returns the common substring as found in the first string.
func (lcs LCS) Substring1(s1 string) string {
	return string([]rune(s1)[lcs.Start1 : lcs.Start1+lcs.Length])
}

// LongestCommonSubstring finds the longest common substring of s1 and s2
// using dynamic programming. In case of multiple equally long substrings,
// the one starting first in s1 (and then first in s2) is returned.
// The second returned value is false if there is no common substring.
func LongestCommonSubstring(s1, s2 string) (LCS, bool) {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return LCS{}, false
	}
	// prev[j+1] is the length of the common suffix of r1[:i] and r2[:j+1]
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	var ans LCS
	for i := 0; i < len(r1); i++ {
		for j := 0; j < len(r2); j++ {
			if r1[i] == r2[j] {
				curr[j+1] = prev[j] + 1
				if curr[j+1] > ans.Length {
					ans.Length = curr[j+1]
					ans.Start1 = i - ans.Length + 1
					ans.Start2 = j - ans.Length + 1
				}

			} else {
				curr[j+1] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ans, ans.Length > 0
}
