// File: internal/jobs/listing_deactivation.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"farmlink_backend/internal/config"
	"farmlink_backend/internal/listing"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ListingDeactivationJob periodically marks exhausted and past-best-before
// listings inactive. Approval transactions never flip status themselves;
// this job is the only place the exhaustion policy is applied.
type ListingDeactivationJob struct {
	listingService listing.Service
	logger         *zap.Logger
	cfg            *config.Config
	cronScheduler  *cron.Cron
}

// NewListingDeactivationJob creates a new ListingDeactivationJob.
func NewListingDeactivationJob(
	listingService listing.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *ListingDeactivationJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &ListingDeactivationJob{
		listingService: listingService,
		logger:         logger.Named("ListingDeactivationJob"),
		cfg:            cfg,
		cronScheduler:  scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *ListingDeactivationJob) SetupAndStart() error {
	jobSpec := j.cfg.ListingDeactivationJobSchedule // e.g., "@daily", "0 1 * * *"
	if jobSpec == "" {
		j.logger.Warn("Listing deactivation job schedule not defined (LISTING_DEACTIVATION_JOB_SCHEDULE). Job will not run.")
		return nil // Not a fatal error, just won't run
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule listing deactivation job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Listing deactivation job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *ListingDeactivationJob) runJob() {
	j.logger.Info("Starting listing deactivation job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deactivatedCount, err := j.listingService.DeactivateStaleListings(ctx)
	if err != nil {
		j.logger.Error("Listing deactivation job run failed", zap.Error(err))
	} else {
		j.logger.Info("Listing deactivation job run completed", zap.Int64("listings_deactivated", deactivatedCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *ListingDeactivationJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping listing deactivation job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Listing deactivation job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Listing deactivation job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	cl.zl.Info(msg, fields...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
