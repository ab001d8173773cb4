package service

import (
	"context"
	"time"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/middleware"
	"github.com/atinyakov/PassKeeper/internal/models"
	"go.uber.org/zap"
)

// historySavepoint isolates the history insert inside a mutation.
const historySavepoint = "secret_history_capture"

// SecretStore defines the persistence operations needed by the SecretService.
type SecretStore interface {
	LabelTaken(ctx context.Context, q db.Querier, ownerID int64, label string, exceptID int64) (bool, error)
	Insert(ctx context.Context, q db.Querier, s *models.Secret) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*models.Secret, error)
	GetForUpdate(ctx context.Context, q db.Querier, id int64) (*models.Secret, error)
	Update(ctx context.Context, q db.Querier, id int64, label, blob *string, now time.Time) (*models.Secret, error)
	Delete(ctx context.Context, q db.Querier, id int64) error
	ListByOwner(ctx context.Context, q db.Querier, ownerID int64) ([]models.Secret, error)
	List(ctx context.Context, q db.Querier) ([]models.Secret, error)
}

// Sealer seals and opens secret values.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(blob string) (string, error)
}

// HistoryOutcome reports what happened to the history capture that
// preceded an update or delete. A failed capture does not fail the
// mutation; Err carries the reason instead.
type HistoryOutcome struct {
	Entry *models.HistoryEntry
	Err   error
}

// Recorded reports whether the prior value was captured.
func (o HistoryOutcome) Recorded() bool {
	return o.Err == nil && o.Entry != nil
}

// SecretService coordinates the lifecycle of stored secrets: it seals on
// write, opens on read, captures history before every mutation and keeps
// labels unique per owner.
type SecretService struct {
	tx      Transactor
	db      db.Querier
	secrets SecretStore
	history *HistoryRecorder
	cipher  Sealer
	log     *zap.Logger
	now     func() time.Time
}

// NewSecretService constructs a SecretService. q serves reads outside of
// transactions. A nil log disables logging.
func NewSecretService(tx Transactor, q db.Querier, secrets SecretStore, history *HistoryRecorder, cipher Sealer, log *zap.Logger) *SecretService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SecretService{
		tx:      tx,
		db:      q,
		secrets: secrets,
		history: history,
		cipher:  cipher,
		log:     log,
		now:     clock,
	}
}

// Create seals plaintext and stores it under (ownerID, label). The label
// must not be in use by another secret of the same owner.
func (s *SecretService) Create(ctx context.Context, ownerID int64, label, plaintext string) (*models.SecretView, error) {
	const op = "secrets.Create"
	switch {
	case ownerID <= 0:
		return nil, apperr.Msg(apperr.ErrValidation, op, "owner id must be positive")
	case label == "":
		return nil, apperr.Msg(apperr.ErrValidation, op, "label must not be empty")
	case plaintext == "":
		return nil, apperr.Msg(apperr.ErrValidation, op, "password must not be empty")
	}

	blob, err := s.cipher.Seal(plaintext)
	if err != nil {
		return nil, err
	}

	now := s.now()
	secret := &models.Secret{OwnerID: ownerID, Label: label, SealedBlob: blob, CreatedAt: now, UpdatedAt: now}
	err = s.tx.InTx(ctx, func(q db.Querier) error {
		taken, err := s.secrets.LabelTaken(ctx, q, ownerID, label, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Msg(apperr.ErrConflict, op, "label already in use")
		}
		return s.secrets.Insert(ctx, q, secret)
	})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	return &models.SecretView{
		ID:        secret.ID,
		OwnerID:   ownerID,
		Label:     label,
		Password:  plaintext,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Read returns the secret with its password opened. A blob that cannot be
// opened is reported through the view's Corrupt flag rather than an error.
func (s *SecretService) Read(ctx context.Context, id int64) (*models.SecretView, error) {
	if id <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "secrets.Read", "secret id must be positive")
	}
	secret, err := s.secrets.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, *secret)
	return &view, nil
}

// ListByOwner returns the opened secrets of one user.
func (s *SecretService) ListByOwner(ctx context.Context, ownerID int64) ([]models.SecretView, error) {
	if ownerID <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "secrets.ListByOwner", "owner id must be positive")
	}
	secrets, err := s.secrets.ListByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, secrets), nil
}

// List returns every secret opened.
func (s *SecretService) List(ctx context.Context) ([]models.SecretView, error) {
	secrets, err := s.secrets.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, secrets), nil
}

// Update applies a partial update. The current sealed value is captured in
// history before the row changes; a failed capture is returned in the
// outcome and does not block the update.
func (s *SecretService) Update(ctx context.Context, id int64, upd models.SecretUpdate) (*models.SecretView, HistoryOutcome, error) {
	const op = "secrets.Update"
	switch {
	case id <= 0:
		return nil, HistoryOutcome{}, apperr.Msg(apperr.ErrValidation, op, "secret id must be positive")
	case upd.Label == nil && upd.Password == nil:
		return nil, HistoryOutcome{}, apperr.Msg(apperr.ErrValidation, op, "nothing to update")
	case upd.Label != nil && *upd.Label == "":
		return nil, HistoryOutcome{}, apperr.Msg(apperr.ErrValidation, op, "label must not be empty")
	case upd.Password != nil && *upd.Password == "":
		return nil, HistoryOutcome{}, apperr.Msg(apperr.ErrValidation, op, "password must not be empty")
	}

	var blob *string
	if upd.Password != nil {
		sealed, err := s.cipher.Seal(*upd.Password)
		if err != nil {
			return nil, HistoryOutcome{}, err
		}
		blob = &sealed
	}

	var (
		outcome HistoryOutcome
		updated *models.Secret
	)
	err := s.tx.InTx(ctx, func(q db.Querier) error {
		current, err := s.secrets.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if upd.Label != nil && *upd.Label != current.Label {
			taken, err := s.secrets.LabelTaken(ctx, q, current.OwnerID, *upd.Label, id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Msg(apperr.ErrConflict, op, "label already in use")
			}
		}

		outcome = s.capture(ctx, q, current)

		updated, err = s.secrets.Update(ctx, q, id, upd.Label, blob, s.now())
		return err
	})
	if err != nil {
		return nil, HistoryOutcome{}, apperr.Storage(op, err)
	}

	view := s.view(ctx, *updated)
	return &view, outcome, nil
}

// Delete removes a secret after capturing its current sealed value in
// history. The label becomes free for reuse.
func (s *SecretService) Delete(ctx context.Context, id int64) (HistoryOutcome, error) {
	const op = "secrets.Delete"
	if id <= 0 {
		return HistoryOutcome{}, apperr.Msg(apperr.ErrValidation, op, "secret id must be positive")
	}

	var outcome HistoryOutcome
	err := s.tx.InTx(ctx, func(q db.Querier) error {
		current, err := s.secrets.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		outcome = s.capture(ctx, q, current)
		return s.secrets.Delete(ctx, q, id)
	})
	if err != nil {
		return HistoryOutcome{}, apperr.Storage(op, err)
	}
	return outcome, nil
}

// capture records the prior value of current under a savepoint, so a
// failed insert leaves the enclosing transaction usable.
func (s *SecretService) capture(ctx context.Context, q db.Querier, current *models.Secret) HistoryOutcome {
	var entry *models.HistoryEntry
	err := db.Savepoint(ctx, q, historySavepoint, func() error {
		var err error
		entry, err = s.history.RecordPriorValue(ctx, q, current.ID, current.SealedBlob)
		return err
	})
	if err != nil {
		s.log.Warn("failed to record secret history",
			zap.String("request_id", middleware.RequestIDFromContext(ctx)),
			zap.Int64("secret_id", current.ID),
			zap.Error(err),
		)
		return HistoryOutcome{Err: err}
	}
	return HistoryOutcome{Entry: entry}
}

func (s *SecretService) views(ctx context.Context, secrets []models.Secret) []models.SecretView {
	out := make([]models.SecretView, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, s.view(ctx, secret))
	}
	return out
}

func (s *SecretService) view(ctx context.Context, secret models.Secret) models.SecretView {
	v := models.SecretView{
		ID:        secret.ID,
		OwnerID:   secret.OwnerID,
		Label:     secret.Label,
		CreatedAt: secret.CreatedAt,
		UpdatedAt: secret.UpdatedAt,
	}
	plain, err := s.cipher.Open(secret.SealedBlob)
	if err != nil {
		s.log.Warn("failed to open secret",
			zap.String("request_id", middleware.RequestIDFromContext(ctx)),
			zap.Int64("secret_id", secret.ID),
			zap.Error(err),
		)
		v.Password = models.DecryptionFailed
		v.Corrupt = true
		return v
	}
	v.Password = plain
	return v
}
