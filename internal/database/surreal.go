package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const surrealSchema = `
DEFINE TABLE IF NOT EXISTS user SCHEMALESS;
DEFINE INDEX IF NOT EXISTS user_email ON TABLE user COLUMNS email UNIQUE;
DEFINE TABLE IF NOT EXISTS message SCHEMALESS;
DEFINE INDEX IF NOT EXISTS message_pair ON TABLE message COLUMNS sender, receiver;
`

var (
	surrealInsertUser = statement{"save user", `INSERT IGNORE INTO user { id: $email, name: $name, email: $email, subjects: $subjects, created_at: time::now() }`}
	surrealGetUser    = statement{"get user", `SELECT * FROM user WHERE email = $email LIMIT 1`}
	surrealAllUsers   = statement{"list users", `SELECT * FROM user ORDER BY created_at ASC`}
	surrealCreateMsg  = statement{"save message", `CREATE message:ulid() SET sender = $sender, receiver = $receiver, content = $content, timestamp = $timestamp`}
	surrealLoadMsgs   = statement{"load messages", `SELECT * FROM message WHERE (sender = $a AND receiver = $b) OR (sender = $b AND receiver = $a) ORDER BY timestamp ASC, id ASC`}
)

type surrealUser struct {
	ID       *models.RecordID `json:"id,omitempty"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Subjects string           `json:"subjects"`
}

type surrealMessage struct {
	ID        *models.RecordID      `json:"id,omitempty"`
	Sender    string                `json:"sender"`
	Receiver  string                `json:"receiver"`
	Content   string                `json:"content"`
	Timestamp models.CustomDateTime `json:"timestamp"`
}

// SurrealOptions configures the connection used for every unit of work.
type SurrealOptions struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Password  string
}

// SurrealStore opens a fresh authenticated connection per unit of work and
// closes it when the work is done.
type SurrealStore struct {
	opts    SurrealOptions
	retries int
	backoff time.Duration

	clockMu sync.Mutex
	last    time.Time
}

// OpenSurreal verifies the server is reachable and defines the schema.
func OpenSurreal(ctx context.Context, opts SurrealOptions) (*SurrealStore, error) {
	s := &SurrealStore{opts: opts, retries: 3, backoff: 200 * time.Millisecond}
	err := s.withConnection(ctx, func(db *surrealdb.DB) error {
		return statement{"define schema", surrealSchema}.exec(ctx, db, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise surreal schema: %w", err)
	}
	return s, nil
}

// Do runs fn against a dedicated connection.
func (s *SurrealStore) Do(ctx context.Context, fn func(domain.Gateway) error) error {
	return s.withConnection(ctx, func(db *surrealdb.DB) error {
		gw := &surrealGateway{store: s, db: db}
		defer gw.released.Store(true)
		return fn(gw)
	})
}

// Ping asks the server for its version.
func (s *SurrealStore) Ping(ctx context.Context) error {
	return s.withConnection(ctx, func(db *surrealdb.DB) error {
		_, err := db.Version(ctx)
		return wrapError(err, "ping")
	})
}

// Close is a no-op; connections are closed at the end of each unit of work.
func (s *SurrealStore) Close() error { return nil }

func (s *SurrealStore) withConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	db, err := s.connectWithRetry(ctx)
	if err != nil {
		return wrapError(err, "connect")
	}
	defer func() {
		if cerr := db.Close(context.WithoutCancel(ctx)); cerr != nil {
			slog.DebugContext(ctx, "Failed to close database connection", "error", cerr)
		}
	}()
	return fn(db)
}

func (s *SurrealStore) connectWithRetry(ctx context.Context) (*surrealdb.DB, error) {
	var lastErr error
	delay := s.backoff
	for attempt := 0; attempt <= s.retries; attempt++ {
		db, err := s.connect(ctx)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if !isConnectionError(err) || attempt == s.retries {
			break
		}
		slog.WarnContext(ctx, "Database connection failed, retrying",
			"attempt", attempt+1, "delay_ms", delay.Milliseconds(), "db_url", redactDBURL(s.opts.URL), "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (s *SurrealStore) connect(ctx context.Context) (*surrealdb.DB, error) {
	conn, err := surrealdb.FromEndpointURLString(ctx, s.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s: %w", redactDBURL(s.opts.URL), err)
	}

	authData := &surrealdb.Auth{
		Username: s.opts.User,
		Password: s.opts.Password,
	}
	if _, err = conn.SignIn(ctx, authData); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	if err = conn.Use(ctx, s.opts.Namespace, s.opts.Database); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}
	return conn, nil
}

func (s *SurrealStore) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := time.Now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

type surrealGateway struct {
	store    *SurrealStore
	db       *surrealdb.DB
	released atomic.Bool
}

func (g *surrealGateway) conn() (*surrealdb.DB, error) {
	if g.released.Load() {
		return nil, ErrHandleReleased
	}
	return g.db, nil
}

func (g *surrealGateway) SaveUser(ctx context.Context, u domain.User) error {
	db, err := g.conn()
	if err != nil {
		return wrapError(err, "save user")
	}
	email := domain.NormalizeEmail(u.Email)
	if email == "" {
		return wrapError(fmt.Errorf("empty email: %w", domain.ErrInvalidInput), "save user")
	}
	return surrealInsertUser.exec(ctx, db, map[string]any{
		"email":    email,
		"name":     u.Name,
		"subjects": u.Subjects.String(),
	})
}

func (g *surrealGateway) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	db, err := g.conn()
	if err != nil {
		return domain.User{}, wrapError(err, "get user")
	}
	row, err := selectOne[surrealUser](ctx, db, surrealGetUser, map[string]any{"email": domain.NormalizeEmail(email)})
	if err != nil {
		return domain.User{}, err
	}
	if row == nil {
		return domain.User{}, NewDBError(domain.ErrNotFound, "get user")
	}
	return row.toDomain(), nil
}

func (g *surrealGateway) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	db, err := g.conn()
	if err != nil {
		return nil, wrapError(err, "list users")
	}
	rows, err := selectAll[surrealUser](ctx, db, surrealAllUsers, nil)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (g *surrealGateway) SaveMessage(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	db, err := g.conn()
	if err != nil {
		return domain.Message{}, wrapError(err, "save message")
	}
	if sender == "" || receiver == "" {
		return domain.Message{}, wrapError(fmt.Errorf("sender and receiver are required: %w", domain.ErrInvalidInput), "save message")
	}
	row, err := selectOne[surrealMessage](ctx, db, surrealCreateMsg, map[string]any{
		"sender":    sender,
		"receiver":  receiver,
		"content":   content,
		"timestamp": models.CustomDateTime{Time: g.store.stamp()},
	})
	if err != nil {
		return domain.Message{}, err
	}
	if row == nil {
		return domain.Message{}, NewDBError(errors.New("create returned no record"), "save message")
	}
	return row.toDomain(), nil
}

func (g *surrealGateway) LoadMessagesBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	db, err := g.conn()
	if err != nil {
		return nil, wrapError(err, "load messages")
	}
	rows, err := selectAll[surrealMessage](ctx, db, surrealLoadMsgs, map[string]any{"a": a, "b": b})
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toDomain())
	}
	return msgs, nil
}

// Surreal record IDs are strings, so the numeric domain ID stays zero.
func (r surrealUser) toDomain() domain.User {
	return domain.User{
		Name:     r.Name,
		Email:    r.Email,
		Subjects: domain.ParseSubjects(r.Subjects),
	}
}

func (r surrealMessage) toDomain() domain.Message {
	return domain.Message{
		Sender:    r.Sender,
		Receiver:  r.Receiver,
		Content:   r.Content,
		Timestamp: r.Timestamp.Time.UTC(),
	}
}

// isConnectionError checks if an error is likely due to a lost or failed connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "unexpected eof")
}

// redactDBURL returns dbURL with any password replaced by "xxxxx".
func redactDBURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsedURL.Redacted()
}
