// Package gemini is a pass-through to the Gemini multimodal API: question +
// image in, model answer out.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/worrakit/vision_service/pkg/utils"
	"google.golang.org/api/option"
)

const maxImageSize = 12 * 1024 * 1024 // 12MB

type Client struct {
	apiKey string
	model  string
	http   *http.Client
}

func New(apiKey, model string) *Client {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Ask downloads the image and sends it together with the question.
func (c *Client) Ask(ctx context.Context, question, imageURL string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("missing gemini api key")
	}

	imageBytes, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData("jpeg", imageBytes),
		genai.Text(question),
	)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty model response")
	}

	answer := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer += string(text)
		}
	}
	if answer == "" {
		return "", errors.New("empty model response")
	}
	return answer, nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errors.New("invalid image URL")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New("invalid image URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("invalid image URL")
	}

	b, err := utils.ReadAllLimit(resp.Body, maxImageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return b, nil
}
