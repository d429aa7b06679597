package providers

import (
	"context"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// ReportRenderer produces the downloadable report document.
type ReportRenderer interface {
	Render(ctx context.Context, in entities.ReportInput) (*entities.ReportArtifact, error)
}
