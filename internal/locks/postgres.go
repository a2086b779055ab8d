package locks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"strings"
	"sync"
	"time"
)

const (
	postgresLockTableName    = "leadsync_project_locks"
	postgresOperationTimeout = 5 * time.Second
	defaultLeaseTTL          = 15 * time.Minute
)

var ErrMissingDSN = errors.New("postgres lock requires a dsn")

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresLock is a lease table shared by every instance. A lease whose
// expires_at has passed is reclaimable, so a crashed holder cannot wedge a
// project for longer than the lease TTL.
//
// Every acquisition writes its own holder token, so a run whose lease
// expired and was taken over cannot delete its successor's row on release.
// Within one instance a project is reserved locally until released, which
// keeps Release(projectID) unambiguous.
type PostgresLock struct {
	dsn       string
	tableName string
	instance  string
	leaseTTL  time.Duration
	openDB    sqlOpenFunc

	mu     sync.Mutex
	leases map[string]string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresLock(dsn string, leaseTTL time.Duration) (*PostgresLock, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &PostgresLock{
		dsn:       dsn,
		tableName: postgresLockTableName,
		instance:  uuid.NewString(),
		leaseTTL:  leaseTTL,
		openDB:    sql.Open,
		leases:    make(map[string]string),
	}, nil
}

// Holder identifies this instance; every holder token it writes starts
// with this prefix.
func (l *PostgresLock) Holder() string {
	return l.instance
}

func (l *PostgresLock) TryAcquire(ctx context.Context, projectID string) (bool, error) {
	if err := l.ensureReady(ctx); err != nil {
		return false, err
	}
	holder, ok := l.reserve(projectID)
	if !ok {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, holder, acquired_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + $3::bigint * INTERVAL '1 millisecond')
		ON CONFLICT (project_id)
		DO UPDATE SET holder = EXCLUDED.holder, acquired_at = EXCLUDED.acquired_at, expires_at = EXCLUDED.expires_at
		WHERE %s.expires_at < NOW()`, postgresQuoteIdentifier(l.tableName), postgresQuoteIdentifier(l.tableName))
	res, err := l.db.ExecContext(ctx, query, projectID, holder, l.leaseTTL.Milliseconds())
	if err != nil {
		l.forget(projectID)
		return false, fmt.Errorf("acquire lease %q: %w", projectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		l.forget(projectID)
		return false, err
	}
	if n != 1 {
		l.forget(projectID)
		return false, nil
	}
	return true, nil
}

// Release deletes the lease only when the row still carries the token of
// this instance's acquisition. Releasing a project not acquired here is a
// no-op.
func (l *PostgresLock) Release(ctx context.Context, projectID string) error {
	if err := l.ensureReady(ctx); err != nil {
		return err
	}
	holder, ok := l.forget(projectID)
	if !ok {
		return nil
	}
	// release must run even when the run's context was cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = $1 AND holder = $2", postgresQuoteIdentifier(l.tableName))
	if _, err := l.db.ExecContext(ctx, query, projectID, holder); err != nil {
		return fmt.Errorf("release lease %q: %w", projectID, err)
	}
	return nil
}

// reserve claims projectID locally and mints the holder token for this
// acquisition. It fails while a previous acquisition is unreleased.
func (l *PostgresLock) reserve(projectID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.leases[projectID]; held {
		return "", false
	}
	holder := l.instance + ":" + uuid.NewString()
	l.leases[projectID] = holder
	return holder, true
}

func (l *PostgresLock) forget(projectID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	holder, ok := l.leases[projectID]
	delete(l.leases, projectID)
	return holder, ok
}

func (l *PostgresLock) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *PostgresLock) ensureReady(ctx context.Context) error {
	l.initOnce.Do(func() {
		db, err := l.openDB("postgres", l.dsn)
		if err != nil {
			l.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_id TEXT PRIMARY KEY,
				holder TEXT NOT NULL,
				acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMPTZ NOT NULL
			)`, postgresQuoteIdentifier(l.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			l.initErr = err
			return
		}
		l.db = db
	})
	return l.initErr
}

func postgresQuoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "\"\""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
