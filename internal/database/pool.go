package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool owns the single *sql.DB shared by every repository.  The connection
// is opened on first use; concurrent cold-start callers wait on the same
// open instead of racing to create several pools.  A failed open is not
// cached, so the next caller retries.
type Pool struct {
	dsn  string
	open func(ctx context.Context, dsn string) (*sql.DB, error)

	mu sync.Mutex
	db *sql.DB
}

// NewPool returns a Pool for the given (normalized) MySQL DSN.  No
// connection is made until DB is called.
func NewPool(dsn string) *Pool {
	return &Pool{dsn: dsn, open: Open}
}

// DB returns the shared handle, opening it if needed.
func (p *Pool) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db, nil
	}
	db, err := p.open(ctx, p.dsn)
	if err != nil {
		return nil, err
	}
	p.db = db
	return db, nil
}

// Ping verifies that the database answers, opening the pool if needed.
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the underlying handle if it was ever opened.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
