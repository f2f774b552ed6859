// Package tts wraps the text-to-speech providers behind a small interface.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hospital-assistant/internal/common/config"
	commonerrors "hospital-assistant/internal/common/errors"
	commonhttp "hospital-assistant/internal/common/http"
	"hospital-assistant/internal/common/logger"
)

// Synthesizer converts response text into spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// New picks the configured provider.
func New(cfg config.TTSProviderConfig, log logger.Logger) (Synthesizer, error) {
	switch cfg.Provider {
	case "elevenlabs":
		return NewElevenLabsClient(cfg, log), nil
	case "openai":
		return NewOpenAIClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.Provider)
	}
}

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// ElevenLabsClient calls the ElevenLabs text-to-speech endpoint.
type ElevenLabsClient struct {
	httpClient *commonhttp.Client
	baseURL    string
	apiKey     string
	voice      string
	log        logger.Logger
}

func NewElevenLabsClient(cfg config.TTSProviderConfig, log logger.Logger) *ElevenLabsClient {
	return &ElevenLabsClient{
		httpClient: commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:    elevenLabsBaseURL,
		apiKey:     cfg.ElevenLabsAPIKey,
		voice:      cfg.ElevenLabsVoice,
		log:        log,
	}
}

func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"text":     text,
		"model_id": "eleven_turbo_v2",
	})
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, c.voice)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.readAudio(ctx, req)
}

func (c *ElevenLabsClient) readAudio(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewSynthesisFailedError(
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	return body, nil
}

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls the OpenAI audio/speech endpoint.
type OpenAIClient struct {
	httpClient *commonhttp.Client
	baseURL    string
	apiKey     string
	voice      string
	log        logger.Logger
}

func NewOpenAIClient(cfg config.TTSProviderConfig, log logger.Logger) *OpenAIClient {
	return &OpenAIClient{
		httpClient: commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:    openAIBaseURL,
		apiKey:     cfg.OpenAIAPIKey,
		voice:      cfg.OpenAIVoice,
		log:        log,
	}
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model": "tts-1",
		"voice": c.voice,
		"input": text,
	})
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, commonerrors.NewSynthesisFailedError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewSynthesisFailedError(
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	return body, nil
}
