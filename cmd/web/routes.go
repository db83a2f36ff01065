package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stories", app.listStories)
	mux.HandleFunc("POST /api/stories", app.createStory)
	mux.HandleFunc("GET /api/stories/{storyID}", app.getStory)
	mux.HandleFunc("DELETE /api/stories/{storyID}", app.deleteStory)
	mux.HandleFunc("PUT /api/stories/{storyID}/premise", app.updatePremise)

	mux.HandleFunc("POST /api/stories/{storyID}/nodes", app.addNode)
	mux.HandleFunc("PUT /api/stories/{storyID}/nodes/{nodeID}", app.updateNode)
	mux.HandleFunc("DELETE /api/stories/{storyID}/nodes/{nodeID}", app.removeNode)
	mux.HandleFunc("POST /api/stories/{storyID}/connections", app.connectNodes)
	mux.HandleFunc("DELETE /api/stories/{storyID}/connections/{edgeID}", app.disconnectNodes)

	mux.HandleFunc("GET /api/stories/{storyID}/versions", app.listVersions)
	mux.HandleFunc("POST /api/stories/{storyID}/versions/{versionID}/restore", app.restoreVersion)

	mux.HandleFunc("POST /api/stories/{storyID}/generate/passage", app.generatePassage)
	mux.HandleFunc("POST /api/stories/{storyID}/generate/edits", app.generateEdits)
	mux.HandleFunc("POST /api/images", app.generateImage)

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return standard.Then(mux)
}
