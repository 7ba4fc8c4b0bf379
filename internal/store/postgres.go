package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

//go:embed migrations.sql
var migrations embed.FS

// PostgresStore is the Postgres-backed Store implementation.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection with the given DSN and applies the
// embedded schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) initializeSchema() error {
	schema, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.Exec(string(schema))
	return err
}

func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmarshalNullable(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.Email, user.CreatedAt)
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateBrand(ctx context.Context, brand *model.Brand) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brands (id, user_id, brand_name, product_description, target_audience, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		brand.ID, brand.UserID, brand.Name, brand.ProductDescription, brand.TargetAudience,
		brand.CreatedAt, brand.UpdatedAt)
	return err
}

func (s *PostgresStore) scanBrand(row *sql.Row) (*model.Brand, error) {
	var b model.Brand
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.ProductDescription, &b.TargetAudience,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) GetBrand(ctx context.Context, id string) (*model.Brand, error) {
	return s.scanBrand(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, brand_name, product_description, target_audience, created_at, updated_at
		 FROM brands WHERE id = $1`, id))
}

func (s *PostgresStore) GetBrandByUser(ctx context.Context, userID string) (*model.Brand, error) {
	return s.scanBrand(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, brand_name, product_description, target_audience, created_at, updated_at
		 FROM brands WHERE user_id = $1 LIMIT 1`, userID))
}

func (s *PostgresStore) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE brands SET brand_name = $2, product_description = $3, target_audience = $4, updated_at = $5
		 WHERE id = $1`,
		brand.ID, brand.Name, brand.ProductDescription, brand.TargetAudience, brand.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteBrand(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	last, err := marshalNullable(nilIfEmptyLast(c.LastMessage))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, user_id, campaign_name, type, status, goals, channels, budget,
		   start_date, end_date, audience, content, last_message, message_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.UserID, c.Name, c.Type, c.Status, c.Goals, c.Channels, c.Budget,
		nullTime(c.StartDate), nullTime(c.EndDate), c.Audience, c.Content,
		last, c.MessageCount, c.CreatedAt, c.UpdatedAt)
	return err
}

const campaignColumns = `id, user_id, campaign_name, type, status, goals, channels, budget,
	start_date, end_date, audience, content, last_message, message_count, created_at, updated_at`

func scanCampaign(sc interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var start, end sql.NullTime
	var last []byte
	err := sc.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Status, &c.Goals, &c.Channels, &c.Budget,
		&start, &end, &c.Audience, &c.Content, &last, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if start.Valid {
		c.StartDate = start.Time
	}
	if end.Valid {
		c.EndDate = end.Time
	}
	if len(last) > 0 {
		var lm model.LastMessage
		if err := unmarshalNullable(last, &lm); err == nil {
			c.LastMessage = &lm
		}
	}
	return &c, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return scanCampaign(s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

func (s *PostgresStore) ListCampaignsByUser(ctx context.Context, userID string) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateCampaign(ctx context.Context, c *model.Campaign) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET campaign_name = $2, type = $3, status = $4, goals = $5, channels = $6,
		   budget = $7, audience = $8, content = $9, updated_at = $10
		 WHERE id = $1`,
		c.ID, c.Name, c.Type, c.Status, c.Goals, c.Channels, c.Budget, c.Audience, c.Content, c.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteCampaign(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) UpdateCampaignAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error {
	var res sql.Result
	var err error
	if last != nil {
		var data []byte
		data, err = json.Marshal(last)
		if err != nil {
			return err
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE campaigns SET last_message = $2,
			   message_count = GREATEST(message_count + $3, 0), updated_at = $4
			 WHERE id = $1`,
			id, data, delta, last.Timestamp)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE campaigns SET message_count = GREATEST(message_count + $2, 0) WHERE id = $1`,
			id, delta)
	}
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	contextBlob, err := marshalNullable(nilIfNilContext(conv.Context))
	if err != nil {
		return err
	}
	prefs, err := marshalNullable(nilIfNilPrefs(conv.AIPreferences))
	if err != nil {
		return err
	}
	last, err := marshalNullable(nilIfEmptyLast(conv.LastMessage))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, campaign_id, title, status, context, ai_preferences,
		   last_message, message_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		conv.ID, conv.UserID, nullString(conv.CampaignID), conv.Title, conv.Status,
		contextBlob, prefs, last, conv.MessageCount, conv.CreatedAt, conv.UpdatedAt)
	return err
}

const conversationColumns = `id, user_id, campaign_id, title, status, context, ai_preferences,
	last_message, message_count, created_at, updated_at`

func scanConversation(sc interface{ Scan(...any) error }) (*model.Conversation, error) {
	var c model.Conversation
	var campaignID sql.NullString
	var contextBlob, prefs, last []byte
	err := sc.Scan(&c.ID, &c.UserID, &campaignID, &c.Title, &c.Status, &contextBlob, &prefs,
		&last, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CampaignID = campaignID.String
	if len(contextBlob) > 0 {
		var cc model.ConversationContext
		if err := unmarshalNullable(contextBlob, &cc); err == nil {
			c.Context = &cc
		}
	}
	if len(prefs) > 0 {
		var p model.AIPreferences
		if err := unmarshalNullable(prefs, &p); err == nil {
			c.AIPreferences = &p
		}
	}
	if len(last) > 0 {
		var lm model.LastMessage
		if err := unmarshalNullable(last, &lm); err == nil {
			c.LastMessage = &lm
		}
	}
	return &c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
}

func (s *PostgresStore) ListConversationsByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE user_id = $1 AND status <> 'deleted' ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, conv *model.Conversation) error {
	contextBlob, err := marshalNullable(nilIfNilContext(conv.Context))
	if err != nil {
		return err
	}
	prefs, err := marshalNullable(nilIfNilPrefs(conv.AIPreferences))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = $2, status = $3, context = $4, ai_preferences = $5, updated_at = $6
		 WHERE id = $1`,
		conv.ID, conv.Title, conv.Status, contextBlob, prefs, conv.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) UpdateConversationAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error {
	lastBlob, err := marshalNullable(nilIfEmptyLast(last))
	if err != nil {
		return err
	}
	var res sql.Result
	if lastBlob != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE conversations SET last_message = $2,
			   message_count = GREATEST(message_count + $3, 0), updated_at = $4
			 WHERE id = $1`,
			id, lastBlob, delta, last.Timestamp)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE conversations SET message_count = GREATEST(message_count + $2, 0) WHERE id = $1`,
			id, delta)
	}
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) SetConversationAggregates(ctx context.Context, id string, last *model.LastMessage, count int) error {
	lastBlob, err := marshalNullable(nilIfEmptyLast(last))
	if err != nil {
		return err
	}
	if count < 0 {
		count = 0
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET last_message = $2, message_count = $3 WHERE id = $1`,
		id, lastBlob, count)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	meta, err := marshalNullable(nilIfNilMeta(msg.Metadata))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ConversationID, nullString(msg.SenderID), msg.Role, msg.Content, meta, msg.CreatedAt)
	return err
}

func scanMessage(sc interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var senderID sql.NullString
	var meta []byte
	err := sc.Scan(&m.ID, &m.ConversationID, &senderID, &m.Role, &m.Content, &meta, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.SenderID = senderID.String
	if len(meta) > 0 {
		var md model.MessageMetadata
		if err := unmarshalNullable(meta, &md); err == nil {
			m.Metadata = &md
		}
	}
	return &m, nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, role, content, metadata, created_at
		 FROM messages WHERE id = $1`, id))
}

func (s *PostgresStore) ListMessagesByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, role, content, metadata, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteMessagesByConversation(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Typed nil pointers must become untyped nil before marshalNullable sees
// them, or the column is written as the JSON literal "null".
func nilIfEmptyLast(lm *model.LastMessage) any {
	if lm == nil {
		return nil
	}
	return lm
}

func nilIfNilContext(c *model.ConversationContext) any {
	if c == nil {
		return nil
	}
	return c
}

func nilIfNilPrefs(p *model.AIPreferences) any {
	if p == nil {
		return nil
	}
	return p
}

func nilIfNilMeta(m *model.MessageMetadata) any {
	if m == nil {
		return nil
	}
	return m
}
