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

	"go.uber.org/zap"

	"github.com/zachswift615/Listen2-sub000/internal/logging"
)

// AlignmentResult is the sole output artifact of an alignment: word timings
// for one text unit, safe to hand across goroutines by value.
type AlignmentResult struct {
	UnitID        int          `json:"unit_id"`
	TotalDuration float64      `json:"total_duration"`
	WordTimings   []WordTiming `json:"word_timings"`
}

// Aligner computes per-word timings for synthesized speech given the exact
// text that was spoken. Each Align call is a self-contained unit of work:
// the only shared state is the read-only vocabulary and the provider's own
// model handle, so independent units may be aligned concurrently as long as
// the provider permits concurrent inference.
type Aligner struct {
	vocab    *Vocabulary
	provider EmissionProvider
}

// NewAligner creates an aligner over a vocabulary and an emission provider.
func NewAligner(vocab *Vocabulary, provider EmissionProvider) *Aligner {
	return &Aligner{vocab: vocab, provider: provider}
}

// Align computes the start time and duration of each word of transcript in
// the given audio. Input audio at a rate other than the provider's is
// resampled first; TotalDuration is computed from the resampled buffer at
// the provider's rate so it is correct regardless of input rate.
//
// Alignment-quality problems (empty transcript, audio too short for the
// token count) degrade to an empty-but-valid result so playback can proceed
// without highlighting. Only provider failures are returned as errors.
func (a *Aligner) Align(ctx context.Context, samples []float32, sampleRate int, transcript string, unitID int) (AlignmentResult, error) {
	if a.provider == nil {
		return AlignmentResult{}, ErrModelNotInitialized
	}

	providerRate := a.provider.SampleRate()
	if sampleRate != providerRate {
		samples = Resample(samples, sampleRate, providerRate)
	}

	result := AlignmentResult{
		UnitID:        unitID,
		TotalDuration: float64(len(samples)) / float64(providerRate),
		WordTimings:   []WordTiming{},
	}

	tokens := a.vocab.Tokenize(transcript)
	if len(tokens) == 0 {
		logging.LogAlignment(unitID, "empty_transcript",
			zap.Int("transcript_length", len(transcript)),
		)
		return result, nil
	}

	emissions, err := a.provider.Emissions(ctx, samples)
	if err != nil {
		return AlignmentResult{}, fmt.Errorf("getting emissions: %w", err)
	}

	tr := buildTrellis(emissions, tokens, a.vocab.BlankIndex())
	if tr.states > tr.frames {
		// Audio too short for the token count; returning empty timings
		// beats guessing
		logging.LogWarn("Degenerate trellis, skipping alignment",
			zap.Int("unit_id", unitID),
			zap.Int("states", tr.states),
			zap.Int("frames", tr.frames),
		)
		return result, nil
	}

	spans := backtrack(tr, tokens)
	frameRate := float64(providerRate) / float64(a.provider.FrameHop())
	result.WordTimings = mergeWords(spans, tokens, transcript, a.vocab, frameRate)

	logging.LogAlignment(unitID, "aligned",
		zap.Int("tokens", len(tokens)),
		zap.Int("frames", emissions.Frames()),
		zap.Int("spans", len(spans)),
		zap.Int("words", len(result.WordTimings)),
		zap.Float64("duration", result.TotalDuration),
	)

	return result, nil
}

// Vocabulary returns the aligner's vocabulary.
func (a *Aligner) Vocabulary() *Vocabulary {
	return a.vocab
}

// Provider returns the aligner's emission provider.
func (a *Aligner) Provider() EmissionProvider {
	return a.provider
}
