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

//go:build onnx

package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/zachswift615/Listen2-sub000/internal/align"
	"github.com/zachswift615/Listen2-sub000/internal/logging"
)

// Tensor names of the MMS_FA ONNX export
const (
	inputName  = "audio"
	outputName = "emissions"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// OnnxProvider runs the MMS_FA acoustic model through ONNX Runtime and
// exposes its frame-level log-probabilities. The runtime session is not
// reentrant, so inference is serialized with a mutex.
type OnnxProvider struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	modelPath  string
	sampleRate int
	frameHop   int
}

// NewOnnxProvider loads the ONNX model at modelPath. sampleRate and frameHop
// describe the audio the model was trained on (16 kHz, 320-sample hop for
// MMS_FA). threads <= 0 leaves the runtime's intra-op thread count at its
// default.
func NewOnnxProvider(modelPath string, sampleRate, frameHop, threads int) (*OnnxProvider, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("acoustic model not found at %s", modelPath)
	}

	ortInitOnce.Do(func() {
		if libPath := os.Getenv("ONNXRUNTIME_LIB_PATH"); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("initializing onnx runtime: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer options.Destroy()
	if threads > 0 {
		if err := options.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("setting thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName}, options)
	if err != nil {
		return nil, fmt.Errorf("loading acoustic model: %w", err)
	}

	logging.LogModelOperation("loaded",
		zap.String("model_path", modelPath),
		zap.Int("sample_rate", sampleRate),
		zap.Int("frame_hop", frameHop),
	)

	return &OnnxProvider{
		session:    session,
		modelPath:  modelPath,
		sampleRate: sampleRate,
		frameHop:   frameHop,
	}, nil
}

// Emissions runs inference over samples and returns per-frame log
// probabilities, shape [frames x vocabulary].
func (p *OnnxProvider) Emissions(ctx context.Context, samples []float32) (*align.EmissionMatrix, error) {
	if p.session == nil {
		return nil, align.ErrModelNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(samples))), samples)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("running acoustic model: %w", err)
	}
	defer outputs[0].Destroy()

	logits, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	shape := logits.GetShape()
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	frames := int(shape[1])
	classes := int(shape[2])

	data := make([]float32, frames*classes)
	copy(data, logits.GetData())
	logSoftmaxRows(data, frames, classes)

	return align.NewEmissionMatrix(frames, classes, data)
}

// SampleRate returns the audio rate the model expects.
func (p *OnnxProvider) SampleRate() int {
	return p.sampleRate
}

// FrameHop returns the number of samples per emission frame.
func (p *OnnxProvider) FrameHop() int {
	return p.frameHop
}

// Close releases the runtime session. The provider is unusable afterwards.
func (p *OnnxProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		if err := p.session.Destroy(); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		p.session = nil
		logging.LogModelOperation("closed", zap.String("model_path", p.modelPath))
	}
	return nil
}

// logSoftmaxRows converts each row of raw logits into log probabilities in
// place, subtracting the max first for numerical stability.
func logSoftmaxRows(data []float32, rows, cols int) {
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v - maxVal))
		}
		logSum := float32(math.Log(sum)) + maxVal
		for i := range row {
			row[i] -= logSum
		}
	}
}
