package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

func (c *Client) CreateProject(ctx context.Context, name, description string) (*store.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", apperrors.ErrInvalidInput)
	}

	p := store.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := c.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Description, formatTime(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &p, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*store.Project, error) {
	return getProject(ctx, c.db, id)
}

func getProject(ctx context.Context, q querier, id string) (*store.Project, error) {
	var p store.Project
	var createdAt string
	err := q.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM projects WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name, description, created_at FROM projects ORDER BY created_at, name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []store.Project{}
	for rows.Next() {
		var p store.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
