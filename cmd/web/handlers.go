package main

import (
	"net/http"

	"github.com/storyloom/storyloom/internal/ai"
	"github.com/storyloom/storyloom/internal/editor"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/versioning"
)

func (app *application) listStories(w http.ResponseWriter, r *http.Request) {
	listings, err := app.stories.ListByOwner(r.Context(), ownerID(r))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, listings)
}

func (app *application) createStory(w http.ResponseWriter, r *http.Request) {
	var story models.Story
	if !app.readJSON(w, r, &story) {
		return
	}
	created, err := app.stories.Create(r.Context(), ownerID(r), story)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, created)
}

func (app *application) getStory(w http.ResponseWriter, r *http.Request) {
	story, err := app.stories.Get(r.Context(), ownerID(r), r.PathValue("storyID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, story)
}

func (app *application) deleteStory(w http.ResponseWriter, r *http.Request) {
	if err := app.stories.Delete(r.Context(), ownerID(r), r.PathValue("storyID")); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withWorkspace loads the story, applies the mutation, captures a snapshot
// with the given action label, and persists the updated document. Each
// request is one run-to-completion editing operation.
func (app *application) withWorkspace(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	mutate func(ws *editor.Workspace) error,
) {
	story, err := app.stories.Get(r.Context(), ownerID(r), r.PathValue("storyID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	ws := editor.NewWorkspace(app.logger, story)
	if err = mutate(ws); err != nil {
		app.handleError(w, r, err)
		return
	}
	ws.Save(action)
	updated := ws.Story()
	if err = app.stories.Update(r.Context(), ownerID(r), updated); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, updated)
}

func (app *application) updatePremise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PremiseText string `json:"premiseText"`
	}
	if !app.readJSON(w, r, &body) {
		return
	}
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationPremise), func(ws *editor.Workspace) error {
		ws.SetPremiseText(body.PremiseText)
		return nil
	})
}

func (app *application) addNode(w http.ResponseWriter, r *http.Request) {
	var node models.Node
	if !app.readJSON(w, r, &node) {
		return
	}
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationAdded), func(ws *editor.Workspace) error {
		_, err := ws.AddNode(node)
		return err
	})
}

func (app *application) updateNode(w http.ResponseWriter, r *http.Request) {
	var patch models.Node
	if !app.readJSON(w, r, &patch) {
		return
	}
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationUpdated), func(ws *editor.Workspace) error {
		return ws.UpdateNode(r.PathValue("nodeID"), patch)
	})
}

func (app *application) removeNode(w http.ResponseWriter, r *http.Request) {
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationDeleted), func(ws *editor.Workspace) error {
		return ws.RemoveNode(r.PathValue("nodeID"))
	})
}

func (app *application) connectNodes(w http.ResponseWriter, r *http.Request) {
	var body graph.Connection
	if !app.readJSON(w, r, &body) {
		return
	}
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationConnected), func(ws *editor.Workspace) error {
		_, err := ws.Connect(body.SourceID, body.TargetID, body.Label)
		return err
	})
}

func (app *application) disconnectNodes(w http.ResponseWriter, r *http.Request) {
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationDisconnected), func(ws *editor.Workspace) error {
		return ws.Disconnect(r.PathValue("edgeID"))
	})
}

func (app *application) listVersions(w http.ResponseWriter, r *http.Request) {
	story, err := app.stories.Get(r.Context(), ownerID(r), r.PathValue("storyID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, story.Versions)
}

func (app *application) restoreVersion(w http.ResponseWriter, r *http.Request) {
	app.withWorkspace(w, r, versioning.ActionLabel(graph.MutationRestored), func(ws *editor.Workspace) error {
		return ws.RestoreVersion(r.PathValue("versionID"))
	})
}

func (app *application) generatePassage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NodeID      string `json:"nodeId"`
		Instruction string `json:"instruction"`
		Language    string `json:"language"`
	}
	if !app.readJSON(w, r, &body) {
		return
	}
	story, err := app.stories.Get(r.Context(), ownerID(r), r.PathValue("storyID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	ws := editor.NewWorkspace(app.logger, story)
	node, err := ws.Store().Node(body.NodeID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	nodeCtx := ai.NodeContext{Title: node.Title, Content: node.Content}
	for _, edge := range node.Connections {
		nodeCtx.NeighborNames = append(nodeCtx.NeighborNames, edge.Label)
	}
	passage, err := app.aiClient.GeneratePassage(r.Context(), ws.PremiseText(), nodeCtx, body.Instruction, body.Language)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	node.Content = passage
	if err = ws.UpdateNode(node.ID, node); err != nil {
		app.handleError(w, r, err)
		return
	}
	ws.Save(versioning.ActionLabel(graph.MutationAIModified))
	updated := ws.Story()
	if err = app.stories.Update(r.Context(), ownerID(r), updated); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, updated)
}

func (app *application) generateEdits(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instruction string `json:"instruction"`
	}
	if !app.readJSON(w, r, &body) {
		return
	}
	story, err := app.stories.Get(r.Context(), ownerID(r), r.PathValue("storyID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	ws := editor.NewWorkspace(app.logger, story)
	batch, err := app.aiClient.GenerateGraphEdits(r.Context(), ws.PremiseText(), ws.Store().Nodes(), body.Instruction)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	// A failed batch applies nothing; prior state is left untouched.
	if err = ws.ApplyEdits(batch); err != nil {
		app.handleError(w, r, err)
		return
	}
	ws.Save(versioning.ActionLabel(graph.MutationAIModified))
	updated := ws.Story()
	if err = app.stories.Update(r.Context(), ownerID(r), updated); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, updated)
}

func (app *application) generateImage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if !app.readJSON(w, r, &body) {
		return
	}
	result, err := app.aiClient.GenerateImage(r.Context(), ai.ImageRequest{
		Prompt: body.Prompt,
		Model:  body.Model,
		Width:  body.Width,
		Height: body.Height,
	}, func(message string) {
		app.logger.Debug("image generation", "status", message)
	})
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}
