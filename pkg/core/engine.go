package core

import (
	"fmt"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Engine runs the full scoring pipeline: extract features, classify the
// progression stage, synthesize the risk assessment. Safe for concurrent
// use; assessment is stateless.
type Engine struct {
	extractor   *FeatureExtractor
	classifier  *ProgressionClassifier
	synthesizer *RiskSynthesizer
}

// EngineOption is a functional option for configuring Engine.
type EngineOption func(*Engine)

// WithExtractor replaces the default feature extractor.
func WithExtractor(e *FeatureExtractor) EngineOption {
	return func(eng *Engine) {
		eng.extractor = e
	}
}

// WithSynthesizer replaces the default risk synthesizer.
func WithSynthesizer(s *RiskSynthesizer) EngineOption {
	return func(eng *Engine) {
		eng.synthesizer = s
	}
}

// NewEngine creates a pipeline with default components unless overridden.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	synth, err := NewRiskSynthesizer()
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		extractor:   NewFeatureExtractor(),
		classifier:  NewProgressionClassifier(),
		synthesizer: synth,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng, nil
}

// Assess validates the conversation and runs it through the pipeline,
// returning both the extracted features and the final assessment.
func (e *Engine) Assess(conv *model.Conversation) (*model.BehavioralFeatures, *model.RiskAssessment, error) {
	if conv == nil {
		return nil, nil, fmt.Errorf("%w: conversation is nil", model.ErrValidation)
	}
	if err := conv.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid conversation: %w", err)
	}

	features := e.extractor.Extract(conv)
	stage, stageConfidence := e.classifier.Classify(features)
	assessment := e.synthesizer.Synthesize(conv, features, stage, stageConfidence)

	return features, assessment, nil
}
