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

// TokenSpan is the frame range (inclusive on both ends) over which a
// transcript token was active, recovered by backtracking.
type TokenSpan struct {
	TokenIndex int
	StartFrame int
	EndFrame   int
}

// backtrack recovers the best state path through the trellis and collapses
// it into per-token frame spans. Blank-state frames are discarded: they are
// pre-token silence, inter-token transition, or trailing silence.
//
// Returns spans in ascending TokenIndex order. A token can be absent from
// the result entirely (empty input, degenerate trellis); callers must not
// assume one span per token.
func backtrack(tr *trellis, tokens []int) []TokenSpan {
	if len(tokens) == 0 || tr.frames == 0 {
		return nil
	}
	// More states than frames: no complete path exists
	if tr.states > tr.frames {
		return nil
	}

	// Best terminal state: the path may end on the final blank or on the
	// final token.
	last := tr.frames - 1
	s := tr.states - 1
	if tr.at(last, tr.states-2) > tr.at(last, s) {
		s = tr.states - 2
	}

	path := make([]int, tr.frames)
	path[last] = s

	for t := last; t > 0; t-- {
		// Same three predecessor relations as the forward pass. Ties
		// prefer "stay", which favors longer, more stable spans.
		best := s
		bestScore := tr.at(t-1, s)
		if s >= 1 && tr.at(t-1, s-1) > bestScore {
			best = s - 1
			bestScore = tr.at(t-1, s-1)
		}
		if s >= 2 && s%2 == 1 && tokens[s/2] != tokens[s/2-1] && tr.at(t-1, s-2) > bestScore {
			best = s - 2
		}
		s = best
		path[t-1] = s
	}

	// Collapse consecutive frames in the same token state into one span.
	// The path is monotonic, so a state is never revisited once left.
	var spans []TokenSpan
	for t := 0; t < tr.frames; t++ {
		state := path[t]
		if state%2 == 0 {
			continue
		}
		tok := state / 2
		if len(spans) > 0 && spans[len(spans)-1].TokenIndex == tok {
			spans[len(spans)-1].EndFrame = t
		} else {
			spans = append(spans, TokenSpan{TokenIndex: tok, StartFrame: t, EndFrame: t})
		}
	}

	return spans
}
