package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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

	_, err := c.pool.Exec(ctx,
		"INSERT INTO projects (id, name, description, created_at) VALUES ($1, $2, $3, $4)",
		uuid.MustParse(p.ID), p.Name, p.Description, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &p, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*store.Project, error) {
	return getProject(ctx, c.pool, id)
}

func getProject(ctx context.Context, q querier, id string) (*store.Project, error) {
	pid, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	var p store.Project
	var scanned uuid.UUID
	err := q.QueryRow(ctx,
		"SELECT id, name, description, created_at FROM projects WHERE id = $1",
		pid,
	).Scan(&scanned, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p.ID = scanned.String()
	return &p, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := c.pool.Query(ctx,
		"SELECT id, name, description, created_at FROM projects ORDER BY created_at, name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []store.Project{}
	for rows.Next() {
		var p store.Project
		var id uuid.UUID
		if err := rows.Scan(&id, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.ID = id.String()
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	pid, ok := parseID(id)
	if !ok {
		return apperrors.ErrNotFound
	}
	tag, err := c.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", pid)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
