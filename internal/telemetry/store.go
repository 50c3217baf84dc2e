package telemetry

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/sensepath-app/sensepath/internal/monitoring"
)

// retainPerSession caps how many frame records are kept per session. Older
// rows are pruned on insert so a long walk cannot grow the database without
// bound.
const retainPerSession = 500

// Store wraps the sqlite database holding guidance frame records.
type Store struct {
	*sql.DB
	path string
}

// Open opens (or creates) the sqlite database at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{DB: db, path: path}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RecordFrame inserts one frame record and prunes the session's history
// down to the retention cap.
func (s *Store) RecordFrame(rec FrameRecord) error {
	_, err := s.Exec(
		`INSERT INTO guidance_frames (
			session_id, state, left_m, center_m, right_m,
			invalid_ratio, stability, fps, urgency, message, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.State, rec.Left, rec.Center, rec.Right,
		rec.InvalidRatio, rec.Stability, rec.FPS, rec.Urgency, rec.Message,
		rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame record: %w", err)
	}

	_, err = s.Exec(
		`DELETE FROM guidance_frames
		 WHERE session_id = ?
		   AND id NOT IN (
		     SELECT id FROM guidance_frames
		     WHERE session_id = ?
		     ORDER BY id DESC LIMIT ?
		   )`,
		rec.SessionID, rec.SessionID, retainPerSession,
	)
	if err != nil {
		return fmt.Errorf("failed to prune frame records: %w", err)
	}
	return nil
}

// RecentFrames returns up to limit most recent frame records, newest first.
// An empty sessionID selects across all sessions.
func (s *Store) RecentFrames(sessionID string, limit int) ([]FrameRecord, error) {
	if limit <= 0 || limit > retainPerSession {
		limit = retainPerSession
	}

	query := `SELECT session_id, state, left_m, center_m, right_m,
			invalid_ratio, stability, fps, urgency, message, timestamp_ms
		FROM guidance_frames`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FrameRecord
	for rows.Next() {
		var rec FrameRecord
		var tsMillis int64
		if err := rows.Scan(
			&rec.SessionID, &rec.State, &rec.Left, &rec.Center, &rec.Right,
			&rec.InvalidRatio, &rec.Stability, &rec.FPS, &rec.Urgency,
			&rec.Message, &tsMillis,
		); err != nil {
			return nil, err
		}
		rec.Timestamp = time.UnixMilli(tsMillis).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Sessions returns the distinct session ids present in the store, most
// recent first.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.Query(
		`SELECT session_id FROM guidance_frames
		 GROUP BY session_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

// AttachAdminRoutes mounts the SQL debugging console and the on-demand
// backup endpoint under /debug/ on the given mux.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.path, s.DB, &tailsql.DBOptions{
		Label: "Guidance DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := s.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			monitoring.Logf("Failed to stream backup file: %v", err)
		}
	}))
	return nil
}
