package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/atinyakov/PassKeeper/internal/secure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// recQuerier records the statements issued through ExecContext.
type recQuerier struct {
	mu    sync.Mutex
	execs []string
}

func (q *recQuerier) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.execs = append(q.execs, query)
	return nil, nil
}

func (q *recQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

func (q *recQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func (q *recQuerier) statements() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.execs...)
}

// memSecrets is an in-memory SecretStore that also emulates the
// (owner_id, label) unique constraint.
type memSecrets struct {
	mu        sync.Mutex
	rows      map[int64]models.Secret
	nextID    int64
	insertErr error
	updateErr error
}

func newMemSecrets() *memSecrets {
	return &memSecrets{rows: make(map[int64]models.Secret)}
}

func (m *memSecrets) LabelTaken(_ context.Context, _ db.Querier, ownerID int64, label string, exceptID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.rows {
		if s.OwnerID == ownerID && s.Label == label && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSecrets) Insert(_ context.Context, _ db.Querier, s *models.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.rows {
		if existing.OwnerID == s.OwnerID && existing.Label == s.Label {
			return apperr.Msg(apperr.ErrConflict, "mem.Insert", "duplicate key")
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = *s
	return nil
}

func (m *memSecrets) GetByID(_ context.Context, _ db.Querier, id int64) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, apperr.Msg(apperr.ErrNotFound, "mem.GetByID", fmt.Sprintf("secret %d", id))
	}
	return &s, nil
}

func (m *memSecrets) GetForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Secret, error) {
	return m.GetByID(ctx, q, id)
}

func (m *memSecrets) Update(_ context.Context, _ db.Querier, id int64, label, blob *string, now time.Time) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	s, ok := m.rows[id]
	if !ok {
		return nil, apperr.Msg(apperr.ErrNotFound, "mem.Update", fmt.Sprintf("secret %d", id))
	}
	if label != nil {
		s.Label = *label
	}
	if blob != nil {
		s.SealedBlob = *blob
	}
	s.UpdatedAt = now
	m.rows[id] = s
	return &s, nil
}

func (m *memSecrets) Delete(_ context.Context, _ db.Querier, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperr.Msg(apperr.ErrNotFound, "mem.Delete", fmt.Sprintf("secret %d", id))
	}
	delete(m.rows, id)
	return nil
}

func (m *memSecrets) ListByOwner(_ context.Context, _ db.Querier, ownerID int64) ([]models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Secret{}
	for _, s := range m.rows {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSecrets) List(_ context.Context, _ db.Querier) ([]models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Secret{}
	for _, s := range m.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSecrets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memSecrets) snapshot() (map[int64]models.Secret, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make(map[int64]models.Secret, len(m.rows))
	for k, v := range m.rows {
		rows[k] = v
	}
	return rows, m.nextID
}

func (m *memSecrets) restore(rows map[int64]models.Secret, nextID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows, m.nextID = rows, nextID
}

// memHistory is an in-memory HistoryStore bound to a memSecrets.
type memHistory struct {
	mu        sync.Mutex
	secrets   *memSecrets
	entries   []models.HistoryEntry
	nextID    int64
	insertErr error
}

func (m *memHistory) Insert(ctx context.Context, q db.Querier, secretID int64, priorBlob string, now time.Time) (*models.HistoryEntry, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, err := m.secrets.GetByID(ctx, q, secretID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e := models.HistoryEntry{ID: m.nextID, SecretID: secretID, PriorBlob: priorBlob, ChangedAt: now}
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memHistory) ForSecret(_ context.Context, _ db.Querier, secretID int64) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.HistoryEntry{}
	for _, e := range m.entries {
		if e.SecretID == secretID {
			out = append(out, e)
		}
	}
	newestFirst(out)
	return out, nil
}

func (m *memHistory) All(_ context.Context, _ db.Querier) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.HistoryEntry{}, m.entries...)
	newestFirst(out)
	return out, nil
}

func (m *memHistory) MostChangedLabel(ctx context.Context, q db.Querier) (*models.LabelChanges, error) {
	m.mu.Lock()
	entries := append([]models.HistoryEntry(nil), m.entries...)
	m.mu.Unlock()

	counts := map[string]int64{}
	for _, e := range entries {
		if s, err := m.secrets.GetByID(ctx, q, e.SecretID); err == nil {
			counts[s.Label]++
		}
	}
	var best *models.LabelChanges
	for label, n := range counts {
		if best == nil || n > best.Changes || (n == best.Changes && label < best.Label) {
			best = &models.LabelChanges{Label: label, Changes: n}
		}
	}
	if best == nil {
		return nil, apperr.Msg(apperr.ErrNotFound, "mem.MostChangedLabel", "no history")
	}
	return best, nil
}

func (m *memHistory) snapshot() ([]models.HistoryEntry, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.HistoryEntry(nil), m.entries...), m.nextID
}

func (m *memHistory) restore(entries []models.HistoryEntry, nextID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries, m.nextID = entries, nextID
}

func newestFirst(entries []models.HistoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ChangedAt.Equal(entries[j].ChangedAt) {
			return entries[i].ChangedAt.After(entries[j].ChangedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

// memTx serializes units of work and undoes them on failure.
type memTx struct {
	mu      sync.Mutex
	q       *recQuerier
	secrets *memSecrets
	history *memHistory
	begun   int
}

func (t *memTx) InTx(_ context.Context, fn func(q db.Querier) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.begun++

	rows, nextSecret := t.secrets.snapshot()
	entries, nextEntry := t.history.snapshot()
	if err := fn(t.q); err != nil {
		t.secrets.restore(rows, nextSecret)
		t.history.restore(entries, nextEntry)
		return err
	}
	return nil
}

// tickClock advances one second per call.
type tickClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *tickClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// stubSealer fails on demand.
type stubSealer struct {
	sealErr error
	openErr error
}

func (s stubSealer) Seal(plaintext string) (string, error) {
	if s.sealErr != nil {
		return "", s.sealErr
	}
	return "sealed:" + plaintext, nil
}

func (s stubSealer) Open(blob string) (string, error) {
	if s.openErr != nil {
		return "", s.openErr
	}
	return blob[len("sealed:"):], nil
}

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(buf), zap.DebugLevel)
	return zap.New(core)
}

type fixture struct {
	svc     *SecretService
	cipher  *secure.Cipher
	tx      *memTx
	q       *recQuerier
	secrets *memSecrets
	history *memHistory
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key := make([]byte, secure.KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	c, err := secure.NewCipher(secure.StaticKey(key))
	require.NoError(t, err)

	q := &recQuerier{}
	secrets := newMemSecrets()
	history := &memHistory{secrets: secrets}
	tx := &memTx{q: q, secrets: secrets, history: history}
	logs := &bytes.Buffer{}
	clk := &tickClock{cur: t0}

	recorder := NewHistoryRecorder(q, history)
	recorder.now = clk.now
	svc := NewSecretService(tx, q, secrets, recorder, c, bufferLogger(logs))
	svc.now = clk.now

	return &fixture{svc: svc, cipher: c, tx: tx, q: q, secrets: secrets, history: history, logs: logs}
}
