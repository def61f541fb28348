package predictions

import (
	"context"

	"github.com/google/uuid"

	"github.com/renalworks/nephroscan/pkg/pagination"
	"github.com/renalworks/nephroscan/pkg/storage"
)

// System defines the public contract for the prediction history ledger.
// Records are append-only: there is deliberately no update or delete.
// Ownership enforcement (caller subject vs record subject) belongs to the
// calling layer; the ledger itself is identity-agnostic for storage.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Classify(ctx context.Context, subject string, cmd ClassifyCommand) (*ClassifyResult, error)
	Find(ctx context.Context, id uuid.UUID) (*Prediction, error)
	ListFor(
		ctx context.Context,
		subject string,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prediction], error)
	OpenImage(ctx context.Context, p *Prediction) (*storage.Download, error)
	VerifyImage(ctx context.Context, p *Prediction) error
}
