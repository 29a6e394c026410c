package gateway

import (
	"context"
	"fmt"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/saga"
)

const (
	stepValidate          saga.StepName = "validate"
	stepFetchOrgs         saga.StepName = "fetch_organizations"
	stepUpdateTurnover    saga.StepName = "update_turnover"
	stepTransferEmployees saga.StepName = "transfer_employees"
	stepRemoveAcquired    saga.StepName = "remove_acquired"
)

type acquireParams struct {
	AcquirerID int64
	AcquiredID int64
}

type fetchedOrganizations struct {
	Acquirer crud.Organization
	Acquired crud.Organization
}

// Acquire merges organization acquiredID into acquirerID: the turnovers are
// summed, the employees move to the acquirer and the acquired organization
// is deleted. On failure every completed step is compensated and a
// *ServiceError is returned; a request to acquire oneself is rejected with a
// *ValidationError before any remote call.
func (s *Service) Acquire(ctx context.Context, acquirerID, acquiredID int64) (*Acquiring, error) {
	sc, err := s.executor.Execute(ctx, s.plans[AcquireSaga], acquireParams{AcquirerID: acquirerID, AcquiredID: acquiredID})
	if err != nil {
		return nil, newServiceError("Acquiring", err)
	}

	orgs, _ := saga.Lookup[fetchedOrganizations](sc, stepFetchOrgs)
	updated, _ := saga.Lookup[crud.Organization](sc, stepUpdateTurnover)
	moved, _ := saga.Lookup[int](sc, stepTransferEmployees)

	return &Acquiring{
		AcquirerOrganization:   updated,
		AcquiredOrganization:   orgs.Acquired,
		NumberOfEmployeesMoved: moved,
	}, nil
}

func (s *Service) acquirePlan() (*saga.Plan, error) {
	b := saga.NewPlanBuilder(AcquireSaga)
	steps := []saga.Step{
		{Name: stepValidate, Label: "Validate request", Reaches: "Validated", Do: s.validateAcquire},
		{Name: stepFetchOrgs, Label: "Fetch organizations", Reaches: "OrgsFetched", Do: s.fetchOrganizations},
		{Name: stepUpdateTurnover, Label: "Aggregate turnover", Reaches: "TurnoverUpdated", Do: s.updateTurnover},
		{Name: stepTransferEmployees, Label: "Transfer employees", Reaches: "EmployeesTransferred", Do: s.transferEmployees},
		{Name: stepRemoveAcquired, Label: "Remove acquired organization", Reaches: "AcquiredDeleted", Do: s.removeAcquired},
	}
	for _, step := range steps {
		if err := b.Append(step); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func acquireParamsOf(sc *saga.Context) (acquireParams, error) {
	p, ok := saga.Lookup[acquireParams](sc, saga.ParamsStep)
	if !ok {
		return p, fmt.Errorf("saga %s started without acquire parameters", sc.Saga)
	}
	return p, nil
}

func (s *Service) validateAcquire(_ context.Context, sc *saga.Context) error {
	p, err := acquireParamsOf(sc)
	if err != nil {
		return err
	}
	if p.AcquirerID <= 0 || p.AcquiredID <= 0 {
		return &ValidationError{Message: "Organization ids must be positive"}
	}
	if p.AcquirerID == p.AcquiredID {
		return &ValidationError{Message: "Organization can not acquire itself"}
	}
	return nil
}

func (s *Service) fetchOrganizations(ctx context.Context, sc *saga.Context) error {
	p, err := acquireParamsOf(sc)
	if err != nil {
		return err
	}

	acquirer, err := s.remote.GetOrganization(ctx, p.AcquirerID)
	if err != nil {
		return err
	}
	acquired, err := s.remote.GetOrganization(ctx, p.AcquiredID)
	if err != nil {
		return err
	}

	sc.Set(fetchedOrganizations{Acquirer: *acquirer, Acquired: *acquired})
	return nil
}

func (s *Service) updateTurnover(ctx context.Context, sc *saga.Context) error {
	orgs, ok := saga.Lookup[fetchedOrganizations](sc, stepFetchOrgs)
	if !ok {
		return fmt.Errorf("step %s has no fetched organizations", stepUpdateTurnover)
	}

	turnover := SaturatingAdd(orgs.Acquirer.AnnualTurnover, orgs.Acquired.AnnualTurnover)
	sc.Push(saga.Record{Kind: KindRestoreTurnover, Payload: restoreTurnover{Snapshot: orgs.Acquirer}})

	updated, err := s.remote.UpdateTurnover(ctx, orgs.Acquirer.ID, turnover, orgs.Acquirer)
	if err != nil {
		return err
	}
	sc.Set(*updated)
	return nil
}

func (s *Service) transferEmployees(ctx context.Context, sc *saga.Context) error {
	orgs, ok := saga.Lookup[fetchedOrganizations](sc, stepFetchOrgs)
	if !ok {
		return fmt.Errorf("step %s has no fetched organizations", stepTransferEmployees)
	}

	employees, err := s.remote.GetEmployees(ctx, orgs.Acquired.ID)
	if err != nil {
		return err
	}
	if len(employees) == 0 {
		sc.Set(0)
		return nil
	}

	sc.Push(saga.Record{
		Kind:    KindTransferEmployeesBack,
		Payload: transferEmployeesBack{Employees: employees, OrgID: orgs.Acquired.ID},
	})

	moved, err := s.remote.BatchTransferEmployees(ctx, employees, orgs.Acquirer.ID)
	if err != nil {
		return err
	}
	sc.Set(len(moved))
	return nil
}

func (s *Service) removeAcquired(ctx context.Context, sc *saga.Context) error {
	orgs, ok := saga.Lookup[fetchedOrganizations](sc, stepFetchOrgs)
	if !ok {
		return fmt.Errorf("step %s has no fetched organizations", stepRemoveAcquired)
	}

	sc.Push(saga.Record{Kind: KindRecreateOrganization, Payload: recreateOrganization{Snapshot: orgs.Acquired}})
	return s.remote.DeleteOrganization(ctx, orgs.Acquired.ID)
}
