package database

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/spf13/afero"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// userRow is the persisted form of domain.User. Subjects are stored as a
// comma-joined string.
type userRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Subjects string `gorm:"not null;default:''"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		Subjects: domain.ParseSubjects(r.Subjects),
	}
}

type messageRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Sender    string    `gorm:"not null"`
	Receiver  string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
}

func (messageRow) TableName() string { return "messages" }

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:        r.ID,
		Sender:    r.Sender,
		Receiver:  r.Receiver,
		Content:   r.Content,
		Timestamp: r.Timestamp.UTC(),
	}
}

// SQLiteStore is a single-file store backed by gorm. Each unit of work runs on
// its own pooled connection.
type SQLiteStore struct {
	db   *gorm.DB
	path string

	clockMu sync.Mutex
	last    time.Time
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// the schema. The parent directory is created through fs.
func OpenSQLite(ctx context.Context, path string, fs afero.Fs) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		slog.InfoContext(ctx, "Creating new store file", "path", path)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store at %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if _, err := Migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	slog.DebugContext(ctx, "SQLite store ready", "path", path)
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Do runs fn with a gateway bound to a dedicated connection. The connection
// is returned to the pool when fn returns or panics, and the gateway refuses
// further calls after that.
func (s *SQLiteStore) Do(ctx context.Context, fn func(domain.Gateway) error) error {
	return s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		gw := &sqliteGateway{store: s, db: tx.Session(&gorm.Session{NewDB: true, Context: ctx})}
		defer gw.released.Store(true)
		return fn(gw)
	})
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrapError(err, "ping")
	}
	return wrapError(sqlDB.PingContext(ctx), "ping")
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// stamp returns the server timestamp for a new message. It never goes
// backwards, even if the wall clock does.
func (s *SQLiteStore) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

type sqliteGateway struct {
	store    *SQLiteStore
	db       *gorm.DB
	released atomic.Bool
}

func (g *sqliteGateway) conn() (*gorm.DB, error) {
	if g.released.Load() {
		return nil, ErrHandleReleased
	}
	return g.db, nil
}

func (g *sqliteGateway) SaveUser(ctx context.Context, u domain.User) error {
	db, err := g.conn()
	if err != nil {
		return wrapError(err, "save user")
	}
	row := userRow{
		Name:     u.Name,
		Email:    domain.NormalizeEmail(u.Email),
		Subjects: u.Subjects.String(),
	}
	if row.Email == "" {
		return wrapError(fmt.Errorf("empty email: %w", domain.ErrInvalidInput), "save user")
	}
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&row).Error
	return wrapError(err, "save user")
}

func (g *sqliteGateway) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	db, err := g.conn()
	if err != nil {
		return domain.User{}, wrapError(err, "get user")
	}
	var row userRow
	if err := db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).Take(&row).Error; err != nil {
		return domain.User{}, wrapError(err, "get user")
	}
	return row.toDomain(), nil
}

func (g *sqliteGateway) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	db, err := g.conn()
	if err != nil {
		return nil, wrapError(err, "list users")
	}
	var rows []userRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapError(err, "list users")
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (g *sqliteGateway) SaveMessage(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	db, err := g.conn()
	if err != nil {
		return domain.Message{}, wrapError(err, "save message")
	}
	if sender == "" || receiver == "" {
		return domain.Message{}, wrapError(fmt.Errorf("sender and receiver are required: %w", domain.ErrInvalidInput), "save message")
	}
	row := messageRow{
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		Timestamp: g.store.stamp(),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Message{}, wrapError(err, "save message")
	}
	return row.toDomain(), nil
}

func (g *sqliteGateway) LoadMessagesBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	db, err := g.conn()
	if err != nil {
		return nil, wrapError(err, "load messages")
	}
	var rows []messageRow
	err = db.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", a, b, b, a).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapError(err, "load messages")
	}
	msgs := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toDomain())
	}
	return msgs, nil
}
