package ai

import (
	"fmt"
	"strings"
)

const editBatchSystemPrompt = `You are a story-graph editor for a branching interactive fiction tool.
You respond with a single JSON object matching this schema and nothing else:
{
  "action": "expand" | "revise" | "prune",
  "nodesToAdd": [{"id": "", "title": "", "content": "", "connections": []}],
  "nodesToModify": [{"id": "", "title": "", "content": "", "connections": []}],
  "nodeIdsToDelete": [""],
  "newConnections": [{"sourceId": "", "targetId": "", "label": ""}],
  "message": "one sentence describing what you changed"
}
Omit any list you leave empty. Never invent node ids: ids in nodesToModify,
nodeIdsToDelete and newConnections must come from the current graph, while
nodesToAdd may carry empty ids.`

func passageSystemPrompt(language string) string {
	prompt := "You write vivid second-person passages for a branching interactive story. " +
		"Respond with the passage text only, no titles or commentary."
	if language != "" {
		prompt += fmt.Sprintf(" Write in %s.", language)
	}
	return prompt
}

func passageUserPrompt(premise string, node NodeContext, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Story premise:\n%s\n", premise)
	if node.Title != "" {
		fmt.Fprintf(&b, "\nPassage title: %s\n", node.Title)
	}
	if node.Content != "" {
		fmt.Fprintf(&b, "\nCurrent passage text:\n%s\n", node.Content)
	}
	if len(node.NeighborNames) > 0 {
		fmt.Fprintf(&b, "\nThis passage leads to: %s\n", strings.Join(node.NeighborNames, ", "))
	}
	fmt.Fprintf(&b, "\nInstruction: %s", instruction)
	return b.String()
}
