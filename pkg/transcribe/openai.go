package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

var _ Transcriber = (*OpenAI)(nil)

// OpenAI transcribes clips through an OpenAI-compatible audio transcription
// endpoint. Groq's hosted whisper speaks the same protocol, so BaseURL picks
// the vendor.
type OpenAI struct {
	Client *openai.Client
	Model  string
}

// NewOpenAI creates a transcriber for the given endpoint. An empty baseURL
// targets the OpenAI API.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{Client: &client, Model: model}
}

// Transcribe uploads the clip and returns the recognized text.
func (o *OpenAI) Transcribe(ctx context.Context, clip Clip) (Result, error) {
	if len(clip.Audio) == 0 {
		return Result{}, ErrNoAudio
	}
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(o.Model),
		File:  openai.File(bytes.NewReader(clip.Audio), clipFileName(clip.Format), clipContentType(clip.Format)),
	}
	if clip.Language != "" {
		params.Language = param.NewOpt(clip.Language)
	}
	resp, err := o.Client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	return Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: clip.Language,
	}, nil
}

func clipFileName(format string) string {
	switch normalizeFormat(format) {
	case "webm":
		return "audio.webm"
	case "wav":
		return "audio.wav"
	case "ogg", "opus":
		return "audio.ogg"
	case "mp3":
		return "audio.mp3"
	case "m4a", "mp4":
		return "audio.m4a"
	case "flac":
		return "audio.flac"
	default:
		return "audio.bin"
	}
}

func clipContentType(format string) string {
	switch normalizeFormat(format) {
	case "webm":
		return "audio/webm"
	case "wav":
		return "audio/wav"
	case "ogg", "opus":
		return "audio/ogg"
	case "mp3":
		return "audio/mpeg"
	case "m4a", "mp4":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	// Remotes may send full MIME types like "audio/webm;codecs=opus".
	if _, rest, ok := strings.Cut(format, "/"); ok {
		format = rest
	}
	if base, _, ok := strings.Cut(format, ";"); ok {
		format = base
	}
	return format
}
