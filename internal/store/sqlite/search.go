package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

func (c *Client) Search(ctx context.Context, projectID, query string, entityType store.EntityType) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperrors.ErrInvalidInput)
	}

	ftsQuery := convertWebsearchToFTS5(query)
	if ftsQuery == "" {
		return []store.SearchResult{}, nil
	}

	// bm25 is lower-is-better; negate it so Score sorts like ts_rank.
	sqlQuery := `
	SELECT e.id, e.entity_type, e.name, e.aliases,
		   -bm25(entities_fts, 10.0, 4.0, 1.0) AS score,
		   snippet(entities_fts, 2, '**', '**', '...', 30) AS snippet
	FROM entities_fts
	JOIN entities e ON entities_fts.rowid = e.rowid
	WHERE entities_fts MATCH ?
	  AND e.project_id = ?
	  AND (? = '' OR e.entity_type = ?)
	ORDER BY score DESC, e.name ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, projectID, string(entityType), string(entityType))
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var t, aliases string
		if err := rows.Scan(&r.ID, &t, &r.Name, &aliases, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Type = store.EntityType(t)
		if aliases != "" {
			if err := json.Unmarshal([]byte(aliases), &r.Aliases); err != nil {
				return nil, fmt.Errorf("unmarshaling aliases: %w", err)
			}
		}
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

type ftsToken struct {
	text     string
	operator bool
	negated  bool
	prefix   bool
}

// convertWebsearchToFTS5 turns websearch-style input (bare words, "quoted
// phrases", -exclusions, OR, trailing * prefixes) into an FTS5 MATCH
// expression. Every term is quoted so punctuation in names like "M. Ramet"
// never reaches the FTS5 parser as syntax.
func convertWebsearchToFTS5(query string) string {
	var out strings.Builder
	pending := ""

	for _, tok := range tokenizeWebsearch(query) {
		if tok.operator {
			if pending == "AND" && tok.text == "NOT" {
				pending = "NOT"
				continue
			}
			pending = tok.text
			continue
		}

		term := quoteFTS(tok.text)
		if tok.prefix {
			term += "*"
		}

		negated := tok.negated || pending == "NOT"
		switch {
		case out.Len() == 0 && negated:
			// FTS5 NOT is binary; a leading exclusion has nothing to subtract from.
		case out.Len() == 0:
			out.WriteString(term)
		case negated:
			out.WriteString(" NOT ")
			out.WriteString(term)
		case pending == "OR":
			out.WriteString(" OR ")
			out.WriteString(term)
		default:
			out.WriteString(" AND ")
			out.WriteString(term)
		}
		pending = ""
	}

	return out.String()
}

func tokenizeWebsearch(query string) []ftsToken {
	var tokens []ftsToken
	var current strings.Builder
	inQuote := false

	flushWord := func() {
		word := current.String()
		current.Reset()
		if word == "" {
			return
		}

		switch upper := strings.ToUpper(word); upper {
		case "AND", "OR", "NOT":
			tokens = append(tokens, ftsToken{text: upper, operator: true})
			return
		}

		tok := ftsToken{}
		if strings.HasPrefix(word, "-") {
			tok.negated = true
			word = strings.TrimLeft(word, "-")
		}
		if strings.HasSuffix(word, "*") {
			tok.prefix = true
			word = strings.TrimRight(word, "*")
		}
		if word == "" {
			return
		}
		tok.text = word
		tokens = append(tokens, tok)
	}

	for _, ch := range query {
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				phrase := strings.Join(strings.Fields(current.String()), " ")
				current.Reset()
				if phrase != "" {
					tokens = append(tokens, ftsToken{text: phrase})
				}
			} else {
				flushWord()
				inQuote = true
			}
		case inQuote:
			current.WriteRune(ch)
		case ch == ' ' || ch == '\t' || ch == '\n':
			flushWord()
		default:
			current.WriteRune(ch)
		}
	}

	if inQuote {
		phrase := strings.Join(strings.Fields(current.String()), " ")
		if phrase != "" {
			tokens = append(tokens, ftsToken{text: phrase})
		}
	} else {
		flushWord()
	}
	return tokens
}

func quoteFTS(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
