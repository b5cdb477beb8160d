package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

func (c *Client) Search(ctx context.Context, projectID, query string, entityType store.EntityType) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperrors.ErrInvalidInput)
	}
	pid, ok := parseID(projectID)
	if !ok {
		return []store.SearchResult{}, nil
	}

	// The vector indexes both the display name and its normalized form, so
	// an unaccented query also matches accented names.
	sql := `
SELECT id, entity_type, name, aliases,
    ts_rank(search_vector, websearch_to_tsquery('simple', $2)) AS score,
    CASE WHEN description <> '' THEN
        ts_headline('simple', description, websearch_to_tsquery('simple', $2),
            'MaxFragments=2, MaxWords=30, MinWords=10, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM entities
WHERE project_id = $1
  AND search_vector @@ websearch_to_tsquery('simple', $2)
  AND ($3 = '' OR entity_type = $3)
ORDER BY score DESC, name ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, pid, store.NormalizeName(query), string(entityType))
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var id uuid.UUID
		var t string
		if err := rows.Scan(&id, &t, &r.Name, &r.Aliases, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.ID = id.String()
		r.Type = store.EntityType(t)
		if r.Aliases == nil {
			r.Aliases = []string{}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}
