package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists memory entries in a sqlite database. All methods are
// safe for concurrent use.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// DefaultDBPath returns the standard location of the memory database,
// honoring XDG_DATA_HOME.
func DefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "apiary", "memory.db"), nil
}

// Open opens (creating if needed) the memory database at the given path.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		source_run_id TEXT,
		source_team_id TEXT,
		relevance_score REAL NOT NULL DEFAULT 1.0,
		created_at TEXT NOT NULL,
		last_accessed TEXT NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	CREATE INDEX IF NOT EXISTS idx_memories_relevance ON memories(relevance_score DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init memory schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Remember stores a new entry and returns its id. Source ids may be empty.
func (s *Store) Remember(category Category, content string, tags []string, sourceRunID, sourceTeamID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	now := formatTime(time.Now())
	res, err := s.db.Exec(`
		INSERT INTO memories (category, content, tags, source_run_id, source_team_id, relevance_score, created_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, 1.0, ?, ?, 0)`,
		string(category), content, string(tagsJSON),
		nullString(sourceRunID), nullString(sourceTeamID), now, now)
	if err != nil {
		return 0, fmt.Errorf("insert memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted memory id: %w", err)
	}
	return id, nil
}

// Recall searches entries whose content matches the query substring,
// optionally filtered by category and tags, ordered by relevance.
// An empty category matches all categories.
func (s *Store) Recall(query string, category Category, tags []string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	q := `SELECT id, category, content, tags, source_run_id, source_team_id, relevance_score, created_at, last_accessed, access_count
		FROM memories WHERE content LIKE ?`
	args := []any{"%" + query + "%"}

	if category != "" {
		q += " AND category = ?"
		args = append(args, string(category))
	}
	for _, tag := range tags {
		q += " AND tags LIKE ?"
		args = append(args, `%"`+tag+`"%`)
	}
	q += " ORDER BY relevance_score DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Touch marks an entry as accessed, bumping its relevance slightly.
func (s *Store) Touch(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE memories
		SET last_accessed = ?, access_count = access_count + 1, relevance_score = relevance_score * 1.01
		WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch memory %d: %w", id, err)
	}
	return nil
}

// DecayScores multiplies every relevance score by the given factor.
// Intended for periodic aging, e.g. factor 0.99.
func (s *Store) DecayScores(factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("UPDATE memories SET relevance_score = relevance_score * ?", factor); err != nil {
		return fmt.Errorf("decay relevance scores: %w", err)
	}
	return nil
}

// Prune deletes entries whose relevance fell below the threshold and
// returns how many were removed.
func (s *Store) Prune(minRelevance float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM memories WHERE relevance_score < ?", minRelevance)
	if err != nil {
		return 0, fmt.Errorf("prune memories: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned memories: %w", err)
	}
	return n, nil
}

// EntryCount returns the number of stored entries.
func (s *Store) EntryCount() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM memories").Scan(&n); err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// Stats summarizes the store contents.
func (s *Store) Stats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{ByCategory: make(map[Category]int64)}

	if err := s.db.QueryRow("SELECT COUNT(*), COALESCE(AVG(relevance_score), 0) FROM memories").
		Scan(&stats.TotalEntries, &stats.AvgRelevance); err != nil {
		return nil, fmt.Errorf("aggregate memory stats: %w", err)
	}

	rows, err := s.db.Query("SELECT category, COUNT(*) FROM memories GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("group memories by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory[Category(cat)] = n
	}
	return stats, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry        Entry
		cat          string
		tagsJSON     string
		runID        sql.NullString
		teamID       sql.NullString
		createdAt    string
		lastAccessed string
	)
	if err := rows.Scan(&entry.ID, &cat, &entry.Content, &tagsJSON, &runID, &teamID,
		&entry.RelevanceScore, &createdAt, &lastAccessed, &entry.AccessCount); err != nil {
		return Entry{}, fmt.Errorf("scan memory row: %w", err)
	}

	entry.Category = Category(cat)
	if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
		// Tolerate rows written by older versions.
		entry.Tags = nil
	}
	entry.SourceRunID = runID.String
	entry.SourceTeamID = teamID.String
	entry.CreatedAt = parseTime(createdAt)
	entry.LastAccessed = parseTime(lastAccessed)
	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
