package engine

import (
	"context"
	"fmt"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"

	"github.com/fmueller/scribedir/internal/audio"
)

// WhisperCpp loads ggml models through the whisper.cpp Go bindings.
// The bindings consume raw 16 kHz samples, so inputs must be WAV files
// at that rate; anything else is reported as a RuntimeError.
type WhisperCpp struct {
	Language string
	Threads  uint
	Logger   *zap.Logger
}

func NewWhisperCpp(language string, logger *zap.Logger) *WhisperCpp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhisperCpp{Language: language, Logger: logger}
}

func (l *WhisperCpp) Load(_ context.Context, modelPath string) (Model, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, runtimeErr("load", fmt.Errorf("model path is empty"))
	}

	l.Logger.Debug("loading whisper model", zap.String("model", modelPath))
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, runtimeErr("load", fmt.Errorf("load model %s: %w", modelPath, err))
	}

	return &whisperModel{
		model:    model,
		language: l.Language,
		threads:  l.Threads,
		logger:   l.Logger,
	}, nil
}

type whisperModel struct {
	model    whisper.Model
	language string
	threads  uint
	logger   *zap.Logger
}

func (m *whisperModel) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	clip, err := audio.Decode(audioPath)
	if err != nil {
		return Result{}, runtimeErr("decode", err)
	}
	if clip.SampleRate != whisper.SampleRate {
		return Result{}, runtimeErr("decode", fmt.Errorf(
			"%s is sampled at %d Hz; the in-process engine needs %d Hz WAV (resample or use the cli engine)",
			audioPath, clip.SampleRate, whisper.SampleRate))
	}

	wctx, err := m.model.NewContext()
	if err != nil {
		return Result{}, runtimeErr("context", err)
	}

	language := strings.TrimSpace(m.language)
	if language == "" {
		language = "auto"
	}
	if err := wctx.SetLanguage(language); err != nil {
		return Result{}, runtimeErr("language", fmt.Errorf("set language %q: %w", language, err))
	}
	wctx.SetTranslate(false)
	if m.threads > 0 {
		wctx.SetThreads(m.threads)
	}

	var segments []Segment
	collect := func(segment whisper.Segment) {
		segments = append(segments, Segment{
			ID:    segment.Num,
			Start: segment.Start,
			End:   segment.End,
			Text:  strings.TrimSpace(segment.Text),
		})
	}

	m.logger.Debug("processing audio",
		zap.String("audio", audioPath),
		zap.Int("frames", clip.Frames()),
		zap.String("language", language),
	)
	if err := wctx.Process(clip.Mono(), nil, collect, nil); err != nil {
		return Result{}, runtimeErr("process", err)
	}

	texts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment.Text != "" {
			texts = append(texts, segment.Text)
		}
	}

	return Result{
		Text:     strings.Join(texts, " "),
		Language: language,
		Segments: segments,
		Duration: clip.Duration(),
	}, nil
}

func (m *whisperModel) Close() error {
	return m.model.Close()
}

var _ Loader = (*WhisperCpp)(nil)
