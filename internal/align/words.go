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

import "unicode"

// WordTiming is the timing of one transcript word. RangeLocation and
// RangeLength are byte offsets into the original transcript string, so a
// consumer can map time back to exact substrings regardless of the
// lowercasing the tokenizer performed.
type WordTiming struct {
	WordIndex     int     `json:"word_index"`
	StartTime     float64 `json:"start_time"`
	Duration      float64 `json:"duration"`
	Text          string  `json:"text"`
	RangeLocation int     `json:"range_location"`
	RangeLength   int     `json:"range_length"`
}

type transcriptWord struct {
	text   string
	offset int
	length int
}

// splitWords splits a transcript on whitespace, recording each word's byte
// offset in the original string.
func splitWords(transcript string) []transcriptWord {
	var words []transcriptWord
	start := -1
	for i, r := range transcript {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, transcriptWord{
					text:   transcript[start:i],
					offset: start,
					length: i - start,
				})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, transcriptWord{
			text:   transcript[start:],
			offset: start,
			length: len(transcript) - start,
		})
	}
	return words
}

// mergeWords groups token-level spans into word-level timings. Each word
// consumes as many leading spans as its own characters tokenize to;
// separator spans between words are skipped by token value, which keeps the
// consumption aligned even across consecutive or leading whitespace. Words
// whose characters all fall outside the vocabulary consume nothing and get
// no timing.
//
// WordIndex is the word's position among the transcript's
// whitespace-delimited words, so skipped words leave a visible gap.
func mergeWords(spans []TokenSpan, tokens []int, transcript string, vocab *Vocabulary, frameRate float64) []WordTiming {
	timings := []WordTiming{}
	if frameRate <= 0 {
		return timings
	}

	sep := vocab.SeparatorIndex()
	isSeparator := func(span TokenSpan) bool {
		return sep >= 0 && span.TokenIndex < len(tokens) && tokens[span.TokenIndex] == sep
	}

	cursor := 0
	for wordIndex, word := range splitWords(transcript) {
		for cursor < len(spans) && isSeparator(spans[cursor]) {
			cursor++
		}

		count := len(vocab.Tokenize(word.text))
		if count == 0 || cursor >= len(spans) {
			continue
		}

		first := cursor
		for cursor < len(spans) && cursor-first < count && !isSeparator(spans[cursor]) {
			cursor++
		}
		if cursor == first {
			continue
		}

		startTime := float64(spans[first].StartFrame) / frameRate
		endTime := float64(spans[cursor-1].EndFrame+1) / frameRate
		timings = append(timings, WordTiming{
			WordIndex:     wordIndex,
			StartTime:     startTime,
			Duration:      endTime - startTime,
			Text:          word.text,
			RangeLocation: word.offset,
			RangeLength:   word.length,
		})
	}

	return timings
}
