// Package stt wraps the speech-to-text provider behind a small interface.
package stt

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

const defaultBaseURL = "https://api.deepgram.com/v1"

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// DeepgramClient calls Deepgram's prerecorded transcription endpoint.
type DeepgramClient struct {
	httpClient *commonhttp.Client
	baseURL    string
	apiKey     string
	model      string
	log        logger.Logger
}

func NewDeepgramClient(cfg config.DeepgramConfig, log logger.Logger) *DeepgramClient {
	return &DeepgramClient{
		httpClient: commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:    defaultBaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log,
	}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (c *DeepgramClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	url := fmt.Sprintf("%s/listen?model=%s&smart_format=true", c.baseURL, c.model)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return "", commonerrors.NewTranscriptionFailedError(err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", commonerrors.NewTranscriptionFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", commonerrors.NewTranscriptionFailedError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", commonerrors.NewTranscriptionFailedError(
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var decoded deepgramResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", commonerrors.NewTranscriptionFailedError(err)
	}
	if len(decoded.Results.Channels) == 0 || len(decoded.Results.Channels[0].Alternatives) == 0 {
		return "", commonerrors.NewTranscriptionFailedError(fmt.Errorf("empty transcription result"))
	}
	return decoded.Results.Channels[0].Alternatives[0].Transcript, nil
}
