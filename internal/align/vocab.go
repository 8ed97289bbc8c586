/*
 * This file is part of Listen2 (https://github.com/zachswift615/Listen2-sub000).
 * Copyright (C) 2025 Zach Swift
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package align

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Conventional symbols used by CTC vocabularies. The blank candidates are
// checked in order; the first one present wins.
var blankSymbols = []string{"-", "<blank>", "<pad>"}

const separatorSymbol = "|"

// Vocabulary maps characters to acoustic model vocabulary indices. It is
// immutable after construction and safe for concurrent reads.
type Vocabulary struct {
	labels    []string
	index     map[string]int
	blank     int
	separator int // -1 when the vocabulary has no word separator
}

// NewVocabulary builds a vocabulary from an ordered label list. Position in
// the list is the model's class index. The blank and word-separator indices
// are resolved once here by scanning for conventional symbols; vocabularies
// that place them at unusual positions still work.
func NewVocabulary(labels []string) (*Vocabulary, error) {
	if len(labels) == 0 {
		return nil, ErrInvalidVocabulary
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		// First occurrence wins for duplicate labels
		if _, ok := index[label]; !ok {
			index[label] = i
		}
	}

	v := &Vocabulary{
		labels:    labels,
		index:     index,
		blank:     0, // CTC blank is index 0 by convention when no symbol matches
		separator: -1,
	}

	for _, symbol := range blankSymbols {
		if i, ok := index[symbol]; ok {
			v.blank = i
			break
		}
	}

	if i, ok := index[separatorSymbol]; ok {
		v.separator = i
	}

	return v, nil
}

// LoadVocabulary reads a labels file (one label per line, index = line
// number) as written by the model export tooling.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels file: %w", err)
	}

	var labels []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}

	return NewVocabulary(labels)
}

// Tokenize converts text to a sequence of vocabulary indices. Input is
// lowercased; whitespace maps to the separator index when one exists and is
// dropped otherwise; characters outside the vocabulary are silently skipped.
// TTS transcripts contain apostrophes, dashes, and ellipses, so unknown
// characters must never be an error.
func (v *Vocabulary) Tokenize(text string) []int {
	tokens := make([]int, 0, len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if v.separator >= 0 {
				tokens = append(tokens, v.separator)
			}
			continue
		}
		if i, ok := v.index[string(r)]; ok {
			tokens = append(tokens, i)
		}
	}
	return tokens
}

// Size returns the number of labels (the emission matrix column count).
func (v *Vocabulary) Size() int {
	return len(v.labels)
}

// BlankIndex returns the CTC blank class index.
func (v *Vocabulary) BlankIndex() int {
	return v.blank
}

// SeparatorIndex returns the word-separator class index, or -1 when the
// vocabulary has none.
func (v *Vocabulary) SeparatorIndex() int {
	return v.separator
}

// Label returns the label string at the given index.
func (v *Vocabulary) Label(i int) string {
	return v.labels[i]
}
