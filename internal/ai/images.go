package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"github.com/storyloom/storyloom/internal/errors"
)

// ImageRequest describes one image-generation call.
type ImageRequest struct {
	Prompt string
	// Model defaults to DALL-E 3.
	Model  string
	Width  int
	Height int
	// ReferenceImage is an optional base64-encoded image to blend with.
	ReferenceImage string
	// BlendStrength in [0, 1]; only meaningful with a reference image.
	BlendStrength float64
}

// ImageResult carries either a hosted URI or an inline base64 payload,
// whichever the collaborator returned.
type ImageResult struct {
	URI     string
	B64JSON string
}

// GenerateImage is fire-and-wait: status receives caller-visible progress
// messages during generation, and nothing is written back anywhere until the
// call resolves successfully.
func (c *Client) GenerateImage(
	ctx context.Context,
	req ImageRequest,
	status func(message string),
) (ImageResult, error) {
	if status == nil {
		status = func(string) {}
	}
	model := req.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	prompt := req.Prompt
	if req.ReferenceImage != "" {
		// The generation endpoint has no blend parameter; the reference is
		// folded into the prompt with its strength as a styling hint.
		prompt = fmt.Sprintf("%s\n\nMatch the style of the provided reference image (blend strength %.2f).",
			prompt, req.BlendStrength)
	}

	status("Generating image...")
	response, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         prompt,
		Size:           imageSize(req.Width, req.Height),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return ImageResult{}, errors.Wrap(err, "create image",
			slog.String("model", model))
	}
	if len(response.Data) == 0 {
		return ImageResult{}, errors.New("image generation returned no data")
	}
	status("Image ready.")
	return ImageResult{
		URI:     response.Data[0].URL,
		B64JSON: response.Data[0].B64JSON,
	}, nil
}

// imageSize maps requested dimensions onto the nearest supported size.
func imageSize(width, height int) string {
	switch {
	case width > height:
		return openai.CreateImageSize1792x1024
	case height > width:
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}
