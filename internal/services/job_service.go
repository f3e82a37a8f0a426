package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fintelis/fintelis-api/internal/jobs"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/fintelis/fintelis-api/pkg/logger"
)

// Names scheduled jobs run under
const (
	RecurringSweepJob = "recurring-sweep"
	BalanceCheckJob   = "balance-check"
)

type JobService struct {
	worker    *jobs.Worker
	recurring *RecurringService
	companies repository.CompanyRepository
	accounts  *BankAccountService
}

func NewJobService(worker *jobs.Worker, recurring *RecurringService, companies repository.CompanyRepository, accounts *BankAccountService) *JobService {
	return &JobService{
		worker:    worker,
		recurring: recurring,
		companies: companies,
		accounts:  accounts,
	}
}

func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
		"scheduled":      stats.Scheduled,
	}
}

// SweepJob is the scheduled form of the recurring sweep
func (s *JobService) SweepJob() jobs.Job {
	return func(ctx context.Context) error {
		_, err := s.recurring.Sweep(ctx, schedule.Today())
		return err
	}
}

// RunRecurringSweep triggers the sweep now under the scheduler's bookkeeping,
// so it never overlaps a scheduled run
func (s *JobService) RunRecurringSweep(ctx context.Context) (int, error) {
	created := 0
	err := s.worker.RunScheduled(RecurringSweepJob, func(jobCtx context.Context) error {
		n, err := s.recurring.Sweep(ctx, schedule.Today())
		created = n
		return err
	})
	if errors.Is(err, jobs.ErrRunInProgress) {
		return 0, &StateError{Message: "a recurring sweep is already running"}
	}
	if err != nil {
		return created, err
	}
	return created, nil
}

// BalanceCheckJob is the scheduled form of RecalculateAll
func (s *JobService) BalanceCheckJob() jobs.Job {
	return func(ctx context.Context) error {
		_, err := s.RecalculateAll(ctx)
		return err
	}
}

// RecalculateAll rebuilds the balances of every company and returns how many
// accounts were corrected. A failing company is logged and skipped; the
// returned error names how many failed.
func (s *JobService) RecalculateAll(ctx context.Context) (int, error) {
	companies, err := s.companies.ListIDs(ctx)
	if err != nil {
		return 0, classify("list companies", err)
	}

	fixed, failed := 0, 0
	for _, companyID := range companies {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		drifts, err := s.accounts.Recalculate(ctx, companyID)
		if err != nil {
			logger.Error("[Job] Balance recalculation failed", "company_id", companyID, "error", err)
			failed++
			continue
		}
		for _, d := range drifts {
			logger.Warn("[Job] Balance corrected", "company_id", companyID, "bank_account_id", d.BankAccountID,
				"name", d.Name, "stored", d.Stored, "expected", d.Expected)
		}
		fixed += len(drifts)
	}

	logger.Info("[Job] Balance check finished", "companies", len(companies), "accounts_fixed", fixed, "failed", failed)
	if failed > 0 {
		return fixed, fmt.Errorf("balance check failed for %d of %d companies", failed, len(companies))
	}
	return fixed, nil
}
