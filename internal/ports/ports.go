package ports

import (
	"context"

	"constrfin/internal/core"
	"constrfin/internal/schedule"
)

// Ports for outbound adapters.
type (
	ConstructionStore interface {
		CreateConstruction(ctx context.Context, c core.Construction) (int64, error)
		GetConstruction(ctx context.Context, userID, id int64) (core.Construction, error)
		ListConstructions(ctx context.Context, userID int64) ([]core.Construction, error)
		UpdateConstruction(ctx context.Context, c core.Construction) error
		DeleteConstruction(ctx context.Context, userID, id int64) error
	}

	PositionStore interface {
		CreatePosition(ctx context.Context, p core.Position) (int64, error)
		GetPosition(ctx context.Context, userID, id int64) (core.Position, error)
		// ListPositions returns the construction's positions in schedule order.
		ListPositions(ctx context.Context, userID, constructionID int64) ([]core.Position, error)
		UpdatePosition(ctx context.Context, p core.Position) error
		DeletePosition(ctx context.Context, userID, id int64) error
	}

	// SchedulePublisher emits a notification that a construction's
	// schedule changed and its exports should be refreshed.
	SchedulePublisher interface {
		PublishScheduleChanged(ctx context.Context, userID, constructionID int64) error
	}

	// ReportWriter pushes a construction's monthly cost table to an
	// external report target.
	ReportWriter interface {
		WriteMonthlyReport(ctx context.Context, constructionName string, agg schedule.Aggregates) error
	}
)
