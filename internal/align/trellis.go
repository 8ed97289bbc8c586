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

import "math"

// trellis is the CTC dynamic-programming score grid over
// frames × (2·tokenCount + 1) expanded states. States alternate
// blank, token₀, blank, token₁, …, blank: state s is a blank when s is
// even and represents tokens[s/2] otherwise. Scores are cumulative
// log-probabilities along the best path reaching each cell.
type trellis struct {
	frames int
	states int
	score  []float64
}

var negInf = math.Inf(-1)

func newTrellis(frames, states int) *trellis {
	t := &trellis{
		frames: frames,
		states: states,
		score:  make([]float64, frames*states),
	}
	for i := range t.score {
		t.score[i] = negInf
	}
	return t
}

func (t *trellis) at(frame, state int) float64 {
	return t.score[frame*t.states+state]
}

func (t *trellis) set(frame, state int, v float64) {
	t.score[frame*t.states+state] = v
}

// buildTrellis fills the forced-alignment trellis using the max-based
// (Viterbi) recurrence rather than full sum-based CTC forward scoring: the
// goal is the single best alignment path, not the sequence probability.
//
// Valid predecessors of state s at frame t are:
//
//	(a) s at t-1: the token or blank is sustained across a frame;
//	(b) s-1 at t-1: emit into the next state;
//	(c) s-2 at t-1: skip the blank between two tokens, allowed only when s
//	    is a token state and its token differs from the token two states
//	    back. Two instances of the same token must keep the intervening
//	    blank or duplicate letters ("ll") would collapse into one.
//
// When numStates > frames no complete path exists; the trellis is still
// returned and backtrack reports the degenerate case.
func buildTrellis(em *EmissionMatrix, tokens []int, blank int) *trellis {
	numStates := 2*len(tokens) + 1
	tr := newTrellis(em.Frames(), numStates)
	if em.Frames() == 0 {
		return tr
	}

	tr.set(0, 0, float64(em.At(0, blank)))
	if numStates > 1 {
		tr.set(0, 1, float64(em.At(0, tokens[0])))
	}

	for t := 1; t < em.Frames(); t++ {
		for s := 0; s < numStates; s++ {
			var emit float64
			if s%2 == 0 {
				emit = float64(em.At(t, blank))
			} else {
				emit = float64(em.At(t, tokens[s/2]))
			}

			best := tr.at(t-1, s)
			if s >= 1 && tr.at(t-1, s-1) > best {
				best = tr.at(t-1, s-1)
			}
			if s >= 2 && s%2 == 1 && tokens[s/2] != tokens[s/2-1] && tr.at(t-1, s-2) > best {
				best = tr.at(t-1, s-2)
			}

			tr.set(t, s, emit+best)
		}
	}

	return tr
}
