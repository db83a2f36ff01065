// Package ai wraps the text- and image-generation collaborators. The core
// hands over already-resolved data only: nothing here mutates graph state,
// and a failed call leaves prior state untouched.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
)

const MaxTokens = 4096

type Client struct {
	client *openai.Client
	logger *slog.Logger
}

func NewClient(apiKey string, logger *slog.Logger) Client {
	return Client{
		client: openai.NewClient(apiKey),
		logger: logger.With("source", "ai.Client"),
	}
}

// NodeContext is the node material handed to the text generator. Any field
// may be empty for partially authored nodes.
type NodeContext struct {
	Title         string
	Content       string
	NeighborNames []string
}

// GeneratePassage produces story text for a node from the story premise, the
// node's context, and a short author instruction.
func (c *Client) GeneratePassage(
	ctx context.Context,
	premise string,
	node NodeContext,
	instruction string,
	language string,
) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     openai.GPT4TurboPreview,
			MaxTokens: MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: passageSystemPrompt(language),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: passageUserPrompt(premise, node, instruction),
				},
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create passage completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("passage completion returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// GenerateGraphEdits asks the generator for a structured set of graph edits
// and decodes it into a batch the graph store can apply atomically.
func (c *Client) GenerateGraphEdits(
	ctx context.Context,
	premise string,
	nodes []models.Node,
	instruction string,
) (graph.EditBatch, error) {
	graphJSON, err := json.Marshal(nodes)
	if err != nil {
		return graph.EditBatch{}, errors.Wrap(err, "marshal graph context")
	}
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     openai.GPT4TurboPreview,
			MaxTokens: MaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: editBatchSystemPrompt,
				},
				{
					Role: openai.ChatMessageRoleUser,
					Content: fmt.Sprintf("Premise:\n%s\n\nCurrent graph:\n%s\n\nInstruction:\n%s",
						premise, graphJSON, instruction),
				},
			},
		},
	)
	if err != nil {
		return graph.EditBatch{}, errors.Wrap(err, "create edit batch completion")
	}
	if len(completion.Choices) == 0 {
		return graph.EditBatch{}, errors.New("edit batch completion returned no choices")
	}
	batch, err := DecodeEditBatch([]byte(completion.Choices[0].Message.Content))
	if err != nil {
		return graph.EditBatch{}, err
	}
	c.logger.Debug("edit batch generated",
		"action", batch.Action,
		"added", len(batch.NodesToAdd),
		"modified", len(batch.NodesToModify),
		"deleted", len(batch.NodeIDsToDelete))
	return batch, nil
}

// DecodeEditBatch parses the fixed edit schema
// {action, nodesToAdd?, nodesToModify?, nodeIdsToDelete?, newConnections?, message}.
func DecodeEditBatch(payload []byte) (graph.EditBatch, error) {
	var batch graph.EditBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return graph.EditBatch{}, errors.Wrap(err, "decode edit batch")
	}
	if batch.Action == "" {
		return graph.EditBatch{}, errors.New("edit batch has no action")
	}
	return batch, nil
}
