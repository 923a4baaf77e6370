package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"dotrip/internal/config"
	"dotrip/internal/domain/models"
)

const wizardStatesDDL = `
CREATE TABLE IF NOT EXISTS wizard_states (
	session_id VARCHAR(64) NOT NULL PRIMARY KEY,
	payload    MEDIUMTEXT  NOT NULL,
	expires_at DATETIME    NOT NULL,
	updated_at DATETIME    NOT NULL,
	INDEX idx_wizard_states_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// MySQLStore keeps wizard state in the wizard_states table.
type MySQLStore struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func (s MySQLStore) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return config.DB
}

func (s MySQLStore) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultStateTTL
}

func (s MySQLStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// EnsureSchema creates the table when missing.
func (s MySQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db().ExecContext(ctx, wizardStatesDDL)
	return err
}

func (s MySQLStore) Load(ctx context.Context, sessionID string) (*models.WizardState, error) {
	var payload string
	err := s.db().QueryRowContext(ctx,
		`SELECT payload FROM wizard_states WHERE session_id = ? AND expires_at > ?`,
		sessionID, s.now(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	var st models.WizardState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s MySQLStore) Save(ctx context.Context, state *models.WizardState) error {
	now := s.now()
	state.UpdatedAt = now
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db().ExecContext(ctx, `
		INSERT INTO wizard_states (session_id, payload, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), expires_at = VALUES(expires_at), updated_at = VALUES(updated_at)`,
		state.SessionID, string(raw), now.Add(s.ttl()), now,
	)
	return err
}

func (s MySQLStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db().ExecContext(ctx, `DELETE FROM wizard_states WHERE session_id = ?`, sessionID)
	return err
}

// PurgeExpired removes rows past their TTL.
func (s MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db().ExecContext(ctx, `DELETE FROM wizard_states WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
