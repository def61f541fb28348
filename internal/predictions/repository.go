package predictions

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/pkg/pagination"
	"github.com/renalworks/nephroscan/pkg/query"
	"github.com/renalworks/nephroscan/pkg/repository"
	"github.com/renalworks/nephroscan/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	engine     inference.Engine
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a prediction repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	engine inference.Engine,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		engine:     engine,
		logger:     logger.With("system", "predictions"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

// Classify runs the inference pipeline on the uploaded image and appends one
// history record: the image is stored first, then the record row is inserted
// in a transaction. A successful return means the record is durably readable;
// an insert failure triggers a compensating blob delete so no orphan image
// survives without a record.
func (r *repo) Classify(ctx context.Context, subject string, cmd ClassifyCommand) (*ClassifyResult, error) {
	result, err := r.engine.Classify(ctx, cmd.Data)
	if err != nil {
		return nil, err
	}

	// UUIDv7 ids are time-ordered and unique under concurrent appends; the
	// primary key constraint backstops generation.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate record id: %w", err)
	}
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("store scan image: %w", err)
	}

	q := `
		INSERT INTO predictions(id, subject, label, confidence, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subject, label, confidence, image_key, created_at`

	insertArgs := []any{
		id,
		subject,
		string(result.Label),
		result.Confidence,
		key,
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prediction, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanPrediction)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("prediction recorded",
		"id", p.ID,
		"subject", p.Subject,
		"label", p.Label,
		"confidence", p.Confidence,
	)

	return &ClassifyResult{
		Prediction:  p,
		Confidences: result.Confidences,
	}, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrediction)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

// ListFor returns the subject's history, most recent first. The sequence is
// restartable from any page and bounded only by storage.
func (r *repo) ListFor(
	ctx context.Context,
	subject string,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prediction], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("Subject", subject)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count predictions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPrediction)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

// OpenImage returns the stored source image for a record. A record whose
// image blob is gone is a broken reference and surfaces ErrImageMissing
// rather than an empty stream.
func (r *repo) OpenImage(ctx context.Context, p *Prediction) (*storage.Download, error) {
	dl, err := r.storage.Open(ctx, p.ImageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrImageMissing, p.ImageKey)
		}
		return nil, err
	}
	return dl, nil
}

// VerifyImage checks that the record's image blob still exists.
func (r *repo) VerifyImage(ctx context.Context, p *Prediction) error {
	ok, err := r.storage.Exists(ctx, p.ImageKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrImageMissing, p.ImageKey)
	}
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("scans/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "scan"
	}
	return url.PathEscape(name)
}
