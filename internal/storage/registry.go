package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clutchphase/stattrack/internal/model"
)

// EnqueueMatch records a match id as pending work. Returns false when
// the id is already in the registry, whatever its status; an id is
// tracked exactly once for its lifetime.
func (db *DB) EnqueueMatch(ctx context.Context, matchID, source string) (bool, error) {
	res, err := db.db.ExecContext(ctx, db.rebind(`
		INSERT INTO match_registry(match_id, status, added_at, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (match_id) DO NOTHING`),
		matchID, model.StatusPending, formatTimestamp(time.Now()), source)
	if err != nil {
		return false, fmt.Errorf("enqueue match %s: %w", matchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue match %s: %w", matchID, err)
	}
	return n > 0, nil
}

// MatchStatus returns the registry status for a match id, or "" when
// the id was never enqueued.
func (db *DB) MatchStatus(ctx context.Context, matchID string) (string, error) {
	var status string
	err := db.db.GetContext(ctx, &status,
		db.rebind("SELECT status FROM match_registry WHERE match_id = ?"), matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("match status %s: %w", matchID, err)
	}
	return status, nil
}

// PendingMatches returns ids still waiting for processing, oldest
// first.
func (db *DB) PendingMatches(ctx context.Context) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT match_id FROM match_registry
		WHERE status = ?
		ORDER BY added_at`), model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("load pending matches: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending match: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetMatchStatus moves a registry entry to a new status. Terminal
// statuses stamp processed_at; moving back to pending or processing
// clears it.
func (db *DB) SetMatchStatus(ctx context.Context, matchID, status string) error {
	var processedAt any
	if status == model.StatusCompleted || status == model.StatusFailed {
		processedAt = formatTimestamp(time.Now())
	}
	_, err := db.db.ExecContext(ctx, db.rebind(`
		UPDATE match_registry SET status = ?, processed_at = ? WHERE match_id = ?`),
		status, processedAt, matchID)
	if err != nil {
		return fmt.Errorf("set status %s for %s: %w", status, matchID, err)
	}
	return nil
}

// RecentRegistryEntries returns the newest registry rows, default 20.
func (db *DB) RecentRegistryEntries(ctx context.Context, limit int) ([]model.RegistryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.db.QueryContext(ctx, db.rebind(`
		SELECT match_id, status, added_at, processed_at, source
		FROM match_registry
		ORDER BY added_at DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	defer rows.Close()

	var out []model.RegistryEntry
	for rows.Next() {
		var (
			e            model.RegistryEntry
			addedAtRaw   string
			processedRaw sql.NullString
			source       sql.NullString
		)
		if err := rows.Scan(&e.MatchID, &e.Status, &addedAtRaw, &processedRaw, &source); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		if e.AddedAt, err = parseTimestamp(addedAtRaw); err != nil {
			return nil, err
		}
		if processedRaw.Valid {
			t, err := parseTimestamp(processedRaw.String)
			if err != nil {
				return nil, err
			}
			e.ProcessedAt = &t
		}
		e.Source = source.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// TrackLobby records a platform lobby the crawler has seen. Returns
// false when the lobby was already tracked.
func (db *DB) TrackLobby(ctx context.Context, lobbyID, notes string) (bool, error) {
	res, err := db.db.ExecContext(ctx, db.rebind(`
		INSERT INTO cybershoke_lobbies(lobby_id, created_at, has_demo, analysis_status, notes)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (lobby_id) DO NOTHING`),
		lobbyID, formatTimestamp(time.Now()), model.StatusPending, notes)
	if err != nil {
		return false, fmt.Errorf("track lobby %s: %w", lobbyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("track lobby %s: %w", lobbyID, err)
	}
	return n > 0, nil
}

// SetLobbyDemo flags whether a demo download exists for a lobby.
func (db *DB) SetLobbyDemo(ctx context.Context, lobbyID string, hasDemo bool) error {
	_, err := db.db.ExecContext(ctx, db.rebind(`
		UPDATE cybershoke_lobbies SET has_demo = ? WHERE lobby_id = ?`),
		boolInt(hasDemo), lobbyID)
	if err != nil {
		return fmt.Errorf("set demo flag for %s: %w", lobbyID, err)
	}
	return nil
}

// SetLobbyStatus moves a lobby to a new analysis status.
func (db *DB) SetLobbyStatus(ctx context.Context, lobbyID, status string) error {
	_, err := db.db.ExecContext(ctx, db.rebind(`
		UPDATE cybershoke_lobbies SET analysis_status = ? WHERE lobby_id = ?`),
		status, lobbyID)
	if err != nil {
		return fmt.Errorf("set lobby status for %s: %w", lobbyID, err)
	}
	return nil
}

// ListLobbies returns tracked lobbies newest first, optionally filtered
// by analysis status.
func (db *DB) ListLobbies(ctx context.Context, status string) ([]model.Lobby, error) {
	query := `
		SELECT lobby_id, created_at, has_demo, analysis_status, notes
		FROM cybershoke_lobbies`
	var args []any
	if status != "" {
		query += " WHERE analysis_status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("load lobbies: %w", err)
	}
	defer rows.Close()

	var out []model.Lobby
	for rows.Next() {
		var (
			l            model.Lobby
			createdAtRaw string
			hasDemo      int
			notes        sql.NullString
		)
		if err := rows.Scan(&l.LobbyID, &createdAtRaw, &hasDemo, &l.Status, &notes); err != nil {
			return nil, fmt.Errorf("scan lobby row: %w", err)
		}
		if l.CreatedAt, err = parseTimestamp(createdAtRaw); err != nil {
			return nil, err
		}
		l.HasDemo = hasDemo != 0
		l.Notes = notes.String
		out = append(out, l)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
