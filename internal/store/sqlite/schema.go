package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entities (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		entity_type     TEXT NOT NULL CHECK (entity_type IN ('person', 'place', 'event', 'object', 'concept')),
		name            TEXT NOT NULL CHECK (trim(name) <> ''),
		name_normalized TEXT NOT NULL,
		aliases         TEXT NOT NULL DEFAULT '[]',
		description     TEXT NOT NULL DEFAULT '',
		properties      TEXT NOT NULL DEFAULT '{}',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		CONSTRAINT uq_entity_project_name UNIQUE (project_id, name_normalized)
	);

	CREATE TABLE IF NOT EXISTS relationships (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		source_id     TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		target_id     TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		relation_type TEXT NOT NULL,
		weight        REAL NOT NULL DEFAULT 1.0,
		properties    TEXT NOT NULL DEFAULT '{}',
		created_at    TEXT NOT NULL,
		CONSTRAINT chk_relationship_not_self CHECK (source_id <> target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_project ON entities (project_id);
	CREATE INDEX IF NOT EXISTS idx_entities_project_type ON entities (project_id, entity_type);
	CREATE INDEX IF NOT EXISTS idx_relationships_project ON relationships (project_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships (source_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships (target_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
		name,
		aliases,
		description,
		content=entities,
		content_rowid=rowid,
		tokenize='unicode61 remove_diacritics 2'
	);

	CREATE TRIGGER IF NOT EXISTS entities_ai AFTER INSERT ON entities BEGIN
		INSERT INTO entities_fts(rowid, name, aliases, description)
		VALUES (new.rowid, new.name, new.aliases, new.description);
	END;

	CREATE TRIGGER IF NOT EXISTS entities_ad AFTER DELETE ON entities BEGIN
		INSERT INTO entities_fts(entities_fts, rowid, name, aliases, description)
		VALUES ('delete', old.rowid, old.name, old.aliases, old.description);
	END;

	CREATE TRIGGER IF NOT EXISTS entities_au AFTER UPDATE ON entities BEGIN
		INSERT INTO entities_fts(entities_fts, rowid, name, aliases, description)
		VALUES ('delete', old.rowid, old.name, old.aliases, old.description);
		INSERT INTO entities_fts(rowid, name, aliases, description)
		VALUES (new.rowid, new.name, new.aliases, new.description);
	END;
	`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements splits the DDL on statement-terminating semicolons,
// keeping trigger bodies (BEGIN ... END;) whole.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
