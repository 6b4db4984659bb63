package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// ImportBatchSize is the number of knowledge items written per INSERT.
const ImportBatchSize = 500

// PostgresKnowledgeStore implements store.KnowledgeStore and knowledge.Source
// using PostgreSQL full-text search.
type PostgresKnowledgeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var (
	_ store.KnowledgeStore = (*PostgresKnowledgeStore)(nil)
	_ knowledge.Source     = (*PostgresKnowledgeStore)(nil)
)

// NewPostgresKnowledgeStore creates a knowledge base store over db.
func NewPostgresKnowledgeStore(db store.DBTX, logger *slog.Logger) *PostgresKnowledgeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresKnowledgeStore{
		db:     db,
		logger: logger.With(slog.String("component", "knowledge_store")),
	}
}

// Search implements knowledge.Source. Query terms are OR-ed; confidence is
// ts_rank_cd normalized with flag 32 (rank/(rank+1)). Items in the requested
// subject sort ahead of the rest.
func (s *PostgresKnowledgeStore) Search(ctx context.Context, q knowledge.Query) ([]knowledge.Snippet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	text := searchText(q.Text)
	if text == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = knowledge.DefaultResultLimit
	}

	const query = `
		WITH q AS (SELECT websearch_to_tsquery('english', $1) AS tsq)
		SELECT question, context, solution, answer, subject, topic,
		       ts_rank_cd(search_vector, q.tsq, 32) AS confidence
		FROM knowledge_items, q
		WHERE search_vector @@ q.tsq
		ORDER BY (lower(subject) = lower($2)) DESC, confidence DESC, id
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, text, q.Subject, limit)
	if err != nil {
		return nil, store.NewStoreError("knowledge_item", "search", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var snippets []knowledge.Snippet
	for rows.Next() {
		var sn knowledge.Snippet
		if err := rows.Scan(&sn.Question, &sn.Context, &sn.Solution, &sn.Answer,
			&sn.Subject, &sn.Topic, &sn.Confidence); err != nil {
			return nil, MapError(err)
		}
		snippets = append(snippets, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("knowledge search finished",
		slog.String("subject", q.Subject),
		slog.Int("results", len(snippets)))
	return snippets, nil
}

// searchText turns free text into a websearch_to_tsquery OR expression.
func searchText(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(words, " or ")
}

// Import implements store.KnowledgeStore. Items are written in batches of
// ImportBatchSize; rows missing a question or a context are skipped.
func (s *PostgresKnowledgeStore) Import(ctx context.Context, items []*domain.KnowledgeItem) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var valid []*domain.KnowledgeItem
	for _, item := range items {
		if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.Context) == "" {
			continue
		}
		valid = append(valid, item)
	}

	written := 0
	for start := 0; start < len(valid); start += ImportBatchSize {
		end := start + ImportBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		n, err := s.insertBatch(ctx, valid[start:end])
		if err != nil {
			return written, err
		}
		written += n
		log.Info("knowledge batch imported",
			slog.Int("batch_start", start),
			slog.Int("batch_size", end-start))
	}

	if skipped := len(items) - len(valid); skipped > 0 {
		log.Warn("skipped incomplete knowledge items", slog.Int("skipped", skipped))
	}
	return written, nil
}

func (s *PostgresKnowledgeStore) insertBatch(ctx context.Context, batch []*domain.KnowledgeItem) (int, error) {
	const cols = 8
	var (
		sb   strings.Builder
		args = make([]any, 0, len(batch)*cols)
	)
	sb.WriteString(`INSERT INTO knowledge_items (id, question, context, solution, answer, subject, topic, choices) VALUES `)

	for i, item := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)

		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		choices := item.Choices
		if choices == nil {
			choices = map[string]string{}
		}
		choicesJSON, err := json.Marshal(choices)
		if err != nil {
			return 0, fmt.Errorf("failed to encode choices: %w", err)
		}
		args = append(args,
			id,
			item.Question,
			item.Context,
			item.Solution,
			item.Answer,
			orGeneral(item.Subject),
			orGeneral(item.Topic),
			choicesJSON,
		)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	result, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, store.NewStoreError("knowledge_item", "import", "batch insert failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Sample implements store.KnowledgeStore.
func (s *PostgresKnowledgeStore) Sample(ctx context.Context, topic string, n int) ([]*domain.KnowledgeItem, error) {
	if n <= 0 {
		return nil, nil
	}

	topic = strings.TrimSpace(topic)
	if topic != "" {
		const filtered = `
			SELECT id, question, context, solution, answer, subject, topic, choices
			FROM knowledge_items
			WHERE topic ILIKE '%' || $1 || '%' ESCAPE '\'
			ORDER BY random()
			LIMIT $2`
		items, err := s.querySample(ctx, filtered, escapeLike(topic), n)
		if err != nil || len(items) > 0 {
			return items, err
		}
	}

	const all = `
		SELECT id, question, context, solution, answer, subject, topic, choices
		FROM knowledge_items
		ORDER BY random()
		LIMIT $1`
	return s.querySample(ctx, all, n)
}

func (s *PostgresKnowledgeStore) querySample(ctx context.Context, query string, args ...any) ([]*domain.KnowledgeItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("knowledge_item", "sample", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.KnowledgeItem
	for rows.Next() {
		var (
			item        domain.KnowledgeItem
			choicesJSON []byte
		)
		if err := rows.Scan(&item.ID, &item.Question, &item.Context, &item.Solution,
			&item.Answer, &item.Subject, &item.Topic, &choicesJSON); err != nil {
			return nil, MapError(err)
		}
		if err := json.Unmarshal(choicesJSON, &item.Choices); err != nil {
			return nil, fmt.Errorf("failed to decode choices for item %s: %w", item.ID, err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// Count implements store.KnowledgeStore.
func (s *PostgresKnowledgeStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM knowledge_items`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func orGeneral(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.DefaultSubjectArea
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
