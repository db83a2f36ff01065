package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/sqlite"
)

// ErrNotFound signals a missing story id (or one owned by another user).
var ErrNotFound = errors.NewSentinel("story not found")

// StoryRepository persists story documents as JSON blobs keyed by story id
// and owner id. The document round-trips exactly; the repository makes no
// assumption about its contents beyond the name used for listings.
type StoryRepository struct {
	dbs    *sqlite.DBs
	logger *slog.Logger
}

func NewStoryRepository(dbs *sqlite.DBs, logger *slog.Logger) *StoryRepository {
	return &StoryRepository{
		dbs:    dbs,
		logger: logger.With("source", "StoryRepository"),
	}
}

// Create stores a new story document, assigning an id when it carries none.
func (r *StoryRepository) Create(ctx context.Context, ownerID string, story models.Story) (models.Story, error) {
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	document, err := json.Marshal(story)
	if err != nil {
		return models.Story{}, errors.Wrap(err, "marshal story document")
	}
	stmt := `INSERT INTO stories (id, owner_id, name, document) VALUES (?, ?, ?, ?)`
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, story.ID, ownerID, story.Name, document); err != nil {
		return models.Story{}, errors.Wrap(err, "insert story", slog.String("id", story.ID))
	}
	r.logger.Debug("story created", "id", story.ID, "owner", ownerID)
	return story, nil
}

// Get loads the story document by id and owner.
func (r *StoryRepository) Get(ctx context.Context, ownerID, storyID string) (models.Story, error) {
	var document string
	stmt := `SELECT document FROM stories WHERE id = ? AND owner_id = ?`
	if err := r.dbs.Read.QueryRowxContext(ctx, stmt, storyID, ownerID).Scan(&document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Story{}, errors.Wrap(ErrNotFound, "get story", slog.String("id", storyID))
		}
		return models.Story{}, errors.Wrap(err, "read story", slog.String("id", storyID))
	}
	var story models.Story
	if err := json.Unmarshal([]byte(document), &story); err != nil {
		return models.Story{}, errors.Wrap(err, "unmarshal story document", slog.String("id", storyID))
	}
	return story, nil
}

// Update replaces the stored document wholesale.
func (r *StoryRepository) Update(ctx context.Context, ownerID string, story models.Story) error {
	document, err := json.Marshal(story)
	if err != nil {
		return errors.Wrap(err, "marshal story document")
	}
	stmt := `UPDATE stories
	SET name = ?, document = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND owner_id = ?`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, story.Name, document, story.ID, ownerID)
	if err != nil {
		return errors.Wrap(err, "update story", slog.String("id", story.ID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, "update story", slog.String("id", story.ID))
	}
	return nil
}

// Delete removes the story.
func (r *StoryRepository) Delete(ctx context.Context, ownerID, storyID string) error {
	stmt := `DELETE FROM stories WHERE id = ? AND owner_id = ?`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, storyID, ownerID)
	if err != nil {
		return errors.Wrap(err, "delete story", slog.String("id", storyID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, "delete story", slog.String("id", storyID))
	}
	r.logger.Debug("story deleted", "id", storyID, "owner", ownerID)
	return nil
}

// StoryListing is a row of ListByOwner.
type StoryListing struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// ListByOwner returns id and name of every story the owner has.
func (r *StoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]StoryListing, error) {
	var listings []StoryListing
	stmt := `SELECT id, name FROM stories WHERE owner_id = ? ORDER BY updated_at DESC`
	if err := r.dbs.Read.SelectContext(ctx, &listings, stmt, ownerID); err != nil {
		return nil, errors.Wrap(err, "list stories", slog.String("owner", ownerID))
	}
	return listings, nil
}
