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
	"errors"
	"math"
	"strings"
	"testing"
)

type stubProvider struct {
	rate       int
	hop        int
	em         *EmissionMatrix
	err        error
	calls      int
	gotSamples []float32
}

func (p *stubProvider) Emissions(_ context.Context, samples []float32) (*EmissionMatrix, error) {
	p.calls++
	p.gotSamples = samples
	if p.err != nil {
		return nil, p.err
	}
	return p.em, nil
}

func (p *stubProvider) SampleRate() int { return p.rate }
func (p *stubProvider) FrameHop() int   { return p.hop }

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	vocab, err := NewVocabulary([]string{"-", "|", "a", "b"})
	if err != nil {
		t.Fatalf("NewVocabulary() error = %v", err)
	}
	return vocab
}

func TestAlign_NilProvider(t *testing.T) {
	aligner := NewAligner(testVocabulary(t), nil)

	_, err := aligner.Align(context.Background(), make([]float32, 1600), 16000, "a b", 1)
	if !errors.Is(err, ErrModelNotInitialized) {
		t.Errorf("Align() error = %v, want ErrModelNotInitialized", err)
	}
}

func TestAlign_EmptyTranscript(t *testing.T) {
	provider := &stubProvider{rate: 16000, hop: 320}
	aligner := NewAligner(testVocabulary(t), provider)

	// One second at 22050 Hz; the aligner resamples before measuring
	samples := make([]float32, 22050)
	result, err := aligner.Align(context.Background(), samples, 22050, "", 7)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}

	if result.WordTimings == nil {
		t.Error("WordTimings is nil, want empty slice")
	}
	if len(result.WordTimings) != 0 {
		t.Errorf("len(WordTimings) = %d, want 0", len(result.WordTimings))
	}
	if result.UnitID != 7 {
		t.Errorf("UnitID = %d, want 7", result.UnitID)
	}
	if math.Abs(result.TotalDuration-1.0) > 0.01 {
		t.Errorf("TotalDuration = %f, want 1.0 (±0.01)", result.TotalDuration)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0 for empty transcript", provider.calls)
	}
}

func TestAlign_TwoWords(t *testing.T) {
	vocab := testVocabulary(t)
	// "a b" tokenizes to [a, |, b]; frames favor a, a, |, b, b, -, -
	em := emissionsFavoring(t, 4, []int{2, 2, 1, 3, 3, 0, 0})
	provider := &stubProvider{rate: 16000, hop: 320, em: em}
	aligner := NewAligner(vocab, provider)

	samples := make([]float32, 7*320)
	result, err := aligner.Align(context.Background(), samples, 16000, "a b", 3)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}

	if math.Abs(result.TotalDuration-0.14) > 1e-9 {
		t.Errorf("TotalDuration = %f, want 0.14", result.TotalDuration)
	}
	if len(result.WordTimings) != 2 {
		t.Fatalf("len(WordTimings) = %d, want 2", len(result.WordTimings))
	}

	first := result.WordTimings[0]
	if first.Text != "a" || first.StartTime != 0.0 || math.Abs(first.Duration-0.04) > 1e-9 {
		t.Errorf("WordTimings[0] = %+v, want \"a\" at 0.00s for 0.04s", first)
	}
	second := result.WordTimings[1]
	if second.Text != "b" || math.Abs(second.StartTime-0.06) > 1e-9 || math.Abs(second.Duration-0.04) > 1e-9 {
		t.Errorf("WordTimings[1] = %+v, want \"b\" at 0.06s for 0.04s", second)
	}

	// Timings are ordered, non-overlapping, and inside the audio
	for i, timing := range result.WordTimings {
		end := timing.StartTime + timing.Duration
		if timing.StartTime < 0 || end > result.TotalDuration+1e-9 {
			t.Errorf("timing %d outside audio: start %f, end %f", i, timing.StartTime, end)
		}
		if i > 0 {
			prev := result.WordTimings[i-1]
			if prev.StartTime+prev.Duration > timing.StartTime+1e-9 {
				t.Errorf("timing %d overlaps previous", i)
			}
		}
	}
}

func TestAlign_ResamplesForProvider(t *testing.T) {
	em := emissionsFavoring(t, 4, []int{2, 2, 1, 3, 3, 0, 0})
	provider := &stubProvider{rate: 16000, hop: 320, em: em}
	aligner := NewAligner(testVocabulary(t), provider)

	samples := make([]float32, 22050)
	result, err := aligner.Align(context.Background(), samples, 22050, "a b", 1)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}

	if diff := len(provider.gotSamples) - 16000; diff < -1 || diff > 1 {
		t.Errorf("provider received %d samples, want 16000 (±1)", len(provider.gotSamples))
	}
	if math.Abs(result.TotalDuration-1.0) > 0.01 {
		t.Errorf("TotalDuration = %f, want 1.0 (±0.01)", result.TotalDuration)
	}
}

func TestAlign_ProviderError(t *testing.T) {
	providerErr := errors.New("session closed")
	provider := &stubProvider{rate: 16000, hop: 320, err: providerErr}
	aligner := NewAligner(testVocabulary(t), provider)

	_, err := aligner.Align(context.Background(), make([]float32, 1600), 16000, "a b", 1)
	if !errors.Is(err, providerErr) {
		t.Fatalf("Align() error = %v, want wrapped provider error", err)
	}
	if !strings.Contains(err.Error(), "getting emissions") {
		t.Errorf("error %q lacks context", err.Error())
	}
}

func TestAlign_AudioTooShort(t *testing.T) {
	// Two frames cannot fit the seven trellis states of "a b"
	em := emissionsFavoring(t, 4, []int{2, 3})
	provider := &stubProvider{rate: 16000, hop: 320, em: em}
	aligner := NewAligner(testVocabulary(t), provider)

	result, err := aligner.Align(context.Background(), make([]float32, 2*320), 16000, "a b", 1)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}
	if len(result.WordTimings) != 0 {
		t.Errorf("len(WordTimings) = %d, want 0 for degenerate audio", len(result.WordTimings))
	}
}

func TestAligner_Accessors(t *testing.T) {
	vocab := testVocabulary(t)
	provider := &stubProvider{rate: 16000, hop: 320}
	aligner := NewAligner(vocab, provider)

	if aligner.Vocabulary() != vocab {
		t.Error("Vocabulary() did not return the configured vocabulary")
	}
	if aligner.Provider() != EmissionProvider(provider) {
		t.Error("Provider() did not return the configured provider")
	}
}
