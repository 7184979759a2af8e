package http

import (
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"
)

// LivenessStatus is the /_health response. Not to be confused with the
// per-owner portfolio health score served under /admin/api/health-score:
// this one only says whether the service itself can reach its database.
type LivenessStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// HealthIndexAction serves the liveness probe for load balancers and
// uptime monitors. Also mounted as HEAD.
func HealthIndexAction(ctx *cartridge.Context) error {
	status := LivenessStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		DBStatus:  "ok",
	}

	if err := pingDatabase(ctx); err != nil {
		ctx.Logger.Error("Liveness database check failed", slog.Any("error", err))
		status.Status = "degraded"
		status.DBStatus = "error"
	}

	return ctx.JSON(status)
}

func pingDatabase(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
