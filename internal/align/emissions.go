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
	"context"
	"fmt"
)

// EmissionMatrix holds per-frame log-probabilities over the vocabulary,
// stored row-major as frames × classes. Values need not be normalized; the
// alignment only compares them.
type EmissionMatrix struct {
	frames  int
	classes int
	data    []float32
}

// NewEmissionMatrix wraps a flat row-major buffer as an emission matrix.
func NewEmissionMatrix(frames, classes int, data []float32) (*EmissionMatrix, error) {
	if frames < 0 || classes <= 0 {
		return nil, fmt.Errorf("invalid emission matrix shape: %d × %d", frames, classes)
	}
	if len(data) != frames*classes {
		return nil, fmt.Errorf("emission matrix shape %d × %d does not match %d values",
			frames, classes, len(data))
	}
	return &EmissionMatrix{frames: frames, classes: classes, data: data}, nil
}

// Frames returns the number of time frames.
func (m *EmissionMatrix) Frames() int {
	return m.frames
}

// Classes returns the vocabulary size (columns).
func (m *EmissionMatrix) Classes() int {
	return m.classes
}

// At returns the log-probability of class c at frame t.
func (m *EmissionMatrix) At(t, c int) float32 {
	return m.data[t*m.classes+c]
}

// EmissionProvider is the capability the aligner requires from an acoustic
// model: mono float PCM at SampleRate in, per-frame log-probabilities out.
// Any backend (ONNX, native library, remote call) can satisfy it.
type EmissionProvider interface {
	// Emissions runs inference over the samples and returns one row per
	// output frame and one column per vocabulary entry.
	Emissions(ctx context.Context, samples []float32) (*EmissionMatrix, error)

	// SampleRate returns the sample rate the provider requires (Hz).
	SampleRate() int

	// FrameHop returns the number of samples advanced between consecutive
	// emission frames.
	FrameHop() int
}
