package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sweep targets
const (
	SweepObligations = "obligations"
	SweepInstances   = "instances"
)

// RecurringInput is the payload of a new recurring bill or income
type RecurringInput struct {
	CategoryID   *uuid.UUID       `json:"category_id"`
	CostCenterID *uuid.UUID       `json:"cost_center_id"`
	ContactID    *uuid.UUID       `json:"contact_id"`
	Description  string           `json:"description" binding:"required"`
	Amount       decimal.Decimal  `json:"amount"`
	Frequency    models.Frequency `json:"frequency" binding:"required"`
	StartDate    civil.Date       `json:"start_date"`
	EndDate      *civil.Date      `json:"end_date"`
	NextDueDate  *civil.Date      `json:"next_due_date"`
}

// RecurringPatch is a partial update of a recurring template
type RecurringPatch struct {
	CategoryID   OptionalID        `json:"category_id"`
	CostCenterID OptionalID        `json:"cost_center_id"`
	ContactID    OptionalID        `json:"contact_id"`
	Description  *string           `json:"description"`
	Amount       *decimal.Decimal  `json:"amount"`
	Frequency    *models.Frequency `json:"frequency"`
	StartDate    *civil.Date       `json:"start_date"`
	EndDate      OptionalDate      `json:"end_date"`
	NextDueDate  *civil.Date       `json:"next_due_date"`
	IsActive     *bool             `json:"is_active"`
}

// RecurringOptions tunes the schedule engine
type RecurringOptions struct {
	HorizonMonths int
	SweepTarget   string
}

// RecurringService is the recurring schedule engine: template lifecycle,
// instance regeneration and the periodic sweep
type RecurringService struct {
	repos     *repository.Repositories
	versioner *cache.Versioner
	audit     *AuditService
	opts      RecurringOptions
	today     func() civil.Date
}

func NewRecurringService(repos *repository.Repositories, versioner *cache.Versioner, audit *AuditService, opts RecurringOptions) *RecurringService {
	if opts.HorizonMonths <= 0 {
		opts.HorizonMonths = schedule.DefaultHorizonMonths
	}
	if opts.SweepTarget == "" {
		opts.SweepTarget = SweepObligations
	}
	return &RecurringService{repos: repos, versioner: versioner, audit: audit, opts: opts, today: schedule.Today}
}

func templateCacheKind(kind models.ObligationKind) cache.Kind {
	if kind == models.KindIncome {
		return cache.KindRecurringIncomes
	}
	return cache.KindRecurringBills
}

func templateEntity(kind models.ObligationKind) string {
	return "recurring " + entityName(kind)
}

func (s *RecurringService) validate(ctx context.Context, r *repository.Repositories, t *models.RecurringTemplate) error {
	verr := NewValidationError()
	validateAmount(verr, t.Amount)
	if t.Description == "" {
		verr.Add("description", "is required")
	}
	if !t.Frequency.Valid() {
		verr.Add("frequency", "must be daily, weekly, monthly, quarterly or yearly")
	}
	if t.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		verr.Add("end_date", "must not be before start_date")
	}
	if t.NextDueDate.Before(t.StartDate) {
		verr.Add("next_due_date", "must not be before start_date")
	}
	if err := validateClassification(ctx, r, verr, t.CompanyID, t.Kind, t.CategoryID, t.CostCenterID, t.ContactID); err != nil {
		return err
	}
	return verr.OrNil()
}

// Create stores a template and generates its pending instances
func (s *RecurringService) Create(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, input RecurringInput) (*models.RecurringTemplate, error) {
	template := &models.RecurringTemplate{
		Base:         models.Base{ID: uuid.New()},
		CompanyID:    companyID,
		Kind:         kind,
		CategoryID:   input.CategoryID,
		CostCenterID: input.CostCenterID,
		ContactID:    input.ContactID,
		Description:  input.Description,
		Amount:       input.Amount,
		Frequency:    input.Frequency,
		IsActive:     true,
	}
	if !input.StartDate.IsZero() {
		template.StartDate = schedule.ToTime(input.StartDate)
		template.NextDueDate = template.StartDate
	}
	if input.NextDueDate != nil {
		template.NextDueDate = schedule.ToTime(*input.NextDueDate)
	}
	if input.EndDate != nil {
		end := schedule.ToTime(*input.EndDate)
		template.EndDate = &end
	}

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		if err := s.validate(ctx, r, template); err != nil {
			return err
		}
		if err := r.Recurring.CreateTemplate(ctx, template); err != nil {
			return classify("create "+templateEntity(kind), err)
		}
		_, err := s.RegenerateInstances(ctx, r, template, s.today())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, companyID, kind)
	s.audit.Log(ctx, companyID, models.AuditActionCreate, templateEntity(kind), template.ID, map[string]interface{}{
		"amount": template.Amount.StringFixed(2), "frequency": template.Frequency,
	})
	return template, nil
}

// Update edits a template. Changing the amount or any schedule field
// regenerates the pending instances.
func (s *RecurringService) Update(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID, patch RecurringPatch) (*models.RecurringTemplate, error) {
	var updated *models.RecurringTemplate

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		template, err := r.Recurring.LockTemplate(ctx, id)
		if err != nil {
			return referenceError(templateEntity(kind), "", err)
		}
		if template.CompanyID != companyID || template.Kind != kind {
			return notFound(templateEntity(kind))
		}
		before := *template

		patch.CategoryID.apply(&template.CategoryID)
		patch.CostCenterID.apply(&template.CostCenterID)
		patch.ContactID.apply(&template.ContactID)
		if patch.Description != nil {
			template.Description = *patch.Description
		}
		if patch.Amount != nil {
			template.Amount = *patch.Amount
		}
		if patch.Frequency != nil {
			template.Frequency = *patch.Frequency
		}
		if patch.StartDate != nil {
			template.StartDate = schedule.ToTime(*patch.StartDate)
		}
		if patch.EndDate.Set {
			template.EndDate = nil
			if patch.EndDate.Value != nil {
				end := schedule.ToTime(*patch.EndDate.Value)
				template.EndDate = &end
			}
		}
		if patch.NextDueDate != nil {
			template.NextDueDate = schedule.ToTime(*patch.NextDueDate)
		}
		if patch.IsActive != nil {
			template.IsActive = *patch.IsActive
		}

		if err := s.validate(ctx, r, template); err != nil {
			return err
		}
		if err := r.Recurring.UpdateTemplate(ctx, template); err != nil {
			return classify("update "+templateEntity(kind), err)
		}
		if scheduleChanged(&before, template) {
			if _, err := s.RegenerateInstances(ctx, r, template, s.today()); err != nil {
				return err
			}
		}
		updated = template
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, companyID, kind)
	s.audit.Log(ctx, companyID, models.AuditActionUpdate, templateEntity(kind), id, nil)
	return updated, nil
}

func scheduleChanged(a, b *models.RecurringTemplate) bool {
	sameEnd := (a.EndDate == nil && b.EndDate == nil) ||
		(a.EndDate != nil && b.EndDate != nil && a.EndDate.Equal(*b.EndDate))
	return !a.Amount.Equal(b.Amount) ||
		a.Frequency != b.Frequency ||
		!a.StartDate.Equal(b.StartDate) ||
		!sameEnd ||
		!a.NextDueDate.Equal(b.NextDueDate) ||
		a.IsActive != b.IsActive
}

// Delete removes the template and its pending instances from today on.
// Every other instance is detached and kept for reporting.
func (s *RecurringService) Delete(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID) error {
	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		template, err := r.Recurring.LockTemplate(ctx, id)
		if err != nil {
			return referenceError(templateEntity(kind), "", err)
		}
		if template.CompanyID != companyID || template.Kind != kind {
			return notFound(templateEntity(kind))
		}
		if _, err := r.Recurring.DeletePendingFrom(ctx, id, schedule.ToTime(s.today())); err != nil {
			return classify("delete pending instances", err)
		}
		if err := r.Recurring.DetachInstances(ctx, id); err != nil {
			return classify("detach instances", err)
		}
		if err := r.Recurring.DeleteTemplate(ctx, id); err != nil {
			return classify("delete "+templateEntity(kind), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, companyID, kind)
	s.audit.Log(ctx, companyID, models.AuditActionDelete, templateEntity(kind), id, nil)
	return nil
}

func (s *RecurringService) Get(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID) (*models.RecurringTemplate, error) {
	template, err := s.repos.Recurring.FindTemplate(ctx, id)
	if err != nil {
		return nil, referenceError(templateEntity(kind), "", err)
	}
	if template.CompanyID != companyID || template.Kind != kind {
		return nil, notFound(templateEntity(kind))
	}
	return template, nil
}

// List returns a page of templates, read through the cache
func (s *RecurringService) List(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *repository.ListQuery) ([]models.RecurringTemplate, int64, error) {
	if query == nil {
		query = repository.NewListQuery()
	}
	type page struct {
		Items []models.RecurringTemplate `json:"items"`
		Total int64                      `json:"total"`
	}
	result, err := cache.Cached(ctx, s.versioner, companyID, templateCacheKind(kind), query.Params(), func(ctx context.Context) (page, error) {
		items, total, err := s.repos.Recurring.ListTemplates(ctx, companyID, kind, query)
		if err != nil {
			return page{}, classify("list "+templateEntity(kind)+"s", err)
		}
		return page{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// Preview lists the next n due dates without storing anything
func (s *RecurringService) Preview(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID, n int) ([]civil.Date, error) {
	if n <= 0 || n > 120 {
		return nil, Invalid("count", "must be between 1 and 120")
	}
	template, err := s.Get(ctx, companyID, kind, id)
	if err != nil {
		return nil, err
	}
	start := schedule.Max(schedule.FromTime(template.NextDueDate), schedule.FromTime(template.StartDate))
	dates, err := schedule.Take(start, endDate(template), template.Frequency, n)
	if err != nil {
		return nil, Invalid("frequency", err.Error())
	}
	return dates, nil
}

// Instances lists every instance of a template, settled ones included
func (s *RecurringService) Instances(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID) ([]models.RecurringInstance, error) {
	if _, err := s.Get(ctx, companyID, kind, id); err != nil {
		return nil, err
	}
	instances, err := s.repos.Recurring.ListInstances(ctx, id)
	if err != nil {
		return nil, classify("list instances", err)
	}
	return instances, nil
}

func endDate(t *models.RecurringTemplate) *civil.Date {
	if t.EndDate == nil {
		return nil
	}
	end := schedule.FromTime(*t.EndDate)
	return &end
}

// RegenerateInstances rebuilds the pending instances of a template inside
// the caller's unit of work. Pending instances dated today or later are
// dropped; everything else stays. Due dates already covered are skipped and
// the insert tolerates conflicts, so running it twice changes nothing.
func (s *RecurringService) RegenerateInstances(ctx context.Context, r *repository.Repositories, t *models.RecurringTemplate, today civil.Date) (int64, error) {
	if _, err := r.Recurring.DeletePendingFrom(ctx, t.ID, schedule.ToTime(today)); err != nil {
		return 0, classify("delete pending instances", err)
	}
	if !t.IsActive {
		return 0, nil
	}

	existing, err := r.Recurring.InstanceDueDates(ctx, t.ID)
	if err != nil {
		return 0, classify("load instance dates", err)
	}
	covered := make(map[civil.Date]bool, len(existing))
	for _, d := range existing {
		covered[schedule.FromTime(d)] = true
	}

	start := schedule.Max(schedule.FromTime(t.NextDueDate), schedule.FromTime(t.StartDate))
	until := schedule.Horizon(schedule.Max(start, today), endDate(t), s.opts.HorizonMonths)
	dates, truncated, err := schedule.Walk(start, until, t.Frequency)
	if err != nil {
		return 0, Invalid("frequency", err.Error())
	}
	if truncated {
		logger.Warn("[Scheduler] Recurring instances capped", "template_id", t.ID,
			"max", schedule.MaxSteps, "last_due", dates[len(dates)-1].String(), "until", until.String())
	}

	templateID := t.ID
	var instances []models.RecurringInstance
	for _, d := range dates {
		if covered[d] {
			continue
		}
		instances = append(instances, models.RecurringInstance{
			Base:       models.Base{ID: uuid.New()},
			CompanyID:  t.CompanyID,
			Kind:       t.Kind,
			TemplateID: &templateID,
			DueDate:    schedule.ToTime(d),
			Amount:     t.Amount,
			Status:     models.InstanceStatusPending,
		})
	}

	inserted, err := r.Recurring.InsertInstances(ctx, instances)
	if err != nil {
		return 0, classify("insert instances", err)
	}
	return inserted, nil
}

// Sweep materializes one occurrence for every active template due on or
// before today. Each template runs in its own unit of work; a failure is
// logged and the sweep moves on. Returns how many occurrences were created.
func (s *RecurringService) Sweep(ctx context.Context, today civil.Date) (int, error) {
	ids, err := s.repos.Recurring.DueTemplateIDs(ctx, schedule.ToTime(today))
	if err != nil {
		return 0, classify("list due templates", err)
	}

	created := 0
	touched := make(map[uuid.UUID]map[models.ObligationKind]bool)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		template, materialized, err := s.sweepOne(ctx, id, today)
		if err != nil {
			logger.Error("[Scheduler] Recurring template sweep failed", "template_id", id, "error", err)
			continue
		}
		if template == nil {
			continue
		}
		if materialized {
			created++
		}
		if touched[template.CompanyID] == nil {
			touched[template.CompanyID] = make(map[models.ObligationKind]bool)
		}
		touched[template.CompanyID][template.Kind] = true
	}

	for companyID, kinds := range touched {
		for kind := range kinds {
			s.versioner.BumpAll(ctx, companyID, templateCacheKind(kind))
			if s.opts.SweepTarget == SweepInstances {
				s.versioner.BumpAll(ctx, companyID, instanceCacheKind(kind))
			} else {
				s.versioner.BumpAll(ctx, companyID, obligationCacheKind(kind))
			}
		}
	}

	logger.Info("[Scheduler] Recurring sweep finished", "due", len(ids), "created", created, "target", s.opts.SweepTarget)
	return created, nil
}

// sweepOne handles a single template under its row lock. A nil template
// means it stopped being due between listing and locking.
func (s *RecurringService) sweepOne(ctx context.Context, id uuid.UUID, today civil.Date) (*models.RecurringTemplate, bool, error) {
	var swept *models.RecurringTemplate
	materialized := false

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		template, err := r.Recurring.LockTemplate(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return classify("lock recurring template", err)
		}
		due := schedule.FromTime(template.NextDueDate)
		if !template.IsActive || due.After(today) {
			return nil
		}

		switch s.opts.SweepTarget {
		case SweepInstances:
			templateID := template.ID
			inserted, err := r.Recurring.InsertInstances(ctx, []models.RecurringInstance{{
				Base:       models.Base{ID: uuid.New()},
				CompanyID:  template.CompanyID,
				Kind:       template.Kind,
				TemplateID: &templateID,
				DueDate:    template.NextDueDate,
				Amount:     template.Amount,
				Status:     models.InstanceStatusPending,
			}})
			if err != nil {
				return classify("insert instance", err)
			}
			materialized = inserted > 0
		default:
			obligation := &models.Obligation{
				CompanyID:    template.CompanyID,
				Kind:         template.Kind,
				CategoryID:   template.CategoryID,
				CostCenterID: template.CostCenterID,
				ContactID:    template.ContactID,
				Description:  template.Description,
				Amount:       template.Amount,
				DueDate:      template.NextDueDate,
				Status:       models.ObligationStatusOpen,
			}
			if err := r.Obligation.Create(ctx, obligation); err != nil {
				return classify("create "+entityName(template.Kind), err)
			}
			materialized = true
		}

		next, err := schedule.Next(due, template.Frequency)
		if err != nil {
			return fmt.Errorf("advance template %s: %w", template.ID, err)
		}
		template.NextDueDate = schedule.ToTime(next)
		if end := endDate(template); end != nil && next.After(*end) {
			template.IsActive = false
		}
		if err := r.Recurring.UpdateTemplate(ctx, template); err != nil {
			return classify("advance recurring template", err)
		}
		swept = template
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return swept, materialized, nil
}

func (s *RecurringService) afterWrite(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind) {
	s.versioner.BumpAll(ctx, companyID, templateCacheKind(kind), instanceCacheKind(kind))
}
