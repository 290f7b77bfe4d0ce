package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session is a store handle scoped to a single request.
// It pins one pooled connection until Close is called.
type Session struct {
	db   *gorm.DB
	conn *sql.Conn
	once sync.Once
	err  error
}

// DB returns the gorm handle bound to the pinned connection.
// Queries issued after Close fail with sql.ErrConnDone.
func (s *Session) DB() *gorm.DB {
	return s.db
}

// Close returns the pinned connection to the pool. Calling it again is a no-op.
func (s *Session) Close() error {
	s.once.Do(func() {
		if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			s.err = fmt.Errorf("failed to release session connection: %w", err)
		}
	})
	return s.err
}

// Factory opens sessions against a shared connection pool.
type Factory struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewFactory creates a session Factory over db.
func NewFactory(db *gorm.DB, log *zap.Logger) *Factory {
	return &Factory{db: db, log: log}
}

// Open acquires a connection from the pool and returns a Session bound to it and to ctx.
func (f *Factory) Open(ctx context.Context) (*Session, error) {
	sqlDB, err := f.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		f.log.Error("failed to acquire database connection", zap.Error(err))
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}

	tx := f.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn

	return &Session{db: tx, conn: conn}, nil
}

// Ping checks that the store is reachable.
func (f *Factory) Ping(ctx context.Context) error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
