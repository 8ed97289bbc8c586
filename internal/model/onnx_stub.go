//go:build !onnx

package model

import (
	"context"
	"fmt"

	"github.com/zachswift615/Listen2-sub000/internal/align"
)

// OnnxProvider stub implementation when onnx runtime is disabled
type OnnxProvider struct {
	modelPath  string
	sampleRate int
	frameHop   int
}

// NewOnnxProvider creates a stub provider when onnx runtime is disabled
func NewOnnxProvider(modelPath string, sampleRate, frameHop, threads int) (*OnnxProvider, error) {
	return &OnnxProvider{
		modelPath:  modelPath,
		sampleRate: sampleRate,
		frameHop:   frameHop,
	}, nil
}

// Emissions stub implementation always fails
func (p *OnnxProvider) Emissions(ctx context.Context, samples []float32) (*align.EmissionMatrix, error) {
	return nil, fmt.Errorf("onnx inference disabled (build with -tags onnx to enable): %w", align.ErrModelNotInitialized)
}

// SampleRate returns the configured audio rate
func (p *OnnxProvider) SampleRate() int {
	return p.sampleRate
}

// FrameHop returns the configured samples per frame
func (p *OnnxProvider) FrameHop() int {
	return p.frameHop
}

// Close stub implementation
func (p *OnnxProvider) Close() error {
	return nil
}
