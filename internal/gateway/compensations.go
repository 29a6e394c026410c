package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/saga"
)

const (
	KindRestoreTurnover       saga.ActionKind = "restore_turnover"
	KindTransferEmployeesBack saga.ActionKind = "transfer_employees_back"
	KindRecreateOrganization  saga.ActionKind = "recreate_organization"
	KindRecreateEmployees     saga.ActionKind = "recreate_employees"
)

// Payloads hold the pre-image captured when the record is pushed.

type restoreTurnover struct {
	Snapshot crud.Organization
}

type transferEmployeesBack struct {
	Employees []crud.Employee
	OrgID     int64
}

type recreateOrganization struct {
	Snapshot crud.Organization
}

type recreateEmployees struct {
	Employees []crud.Employee
	OrgID     int64
}

// Each compensation is pushed before its forward call and must therefore be
// harmless if that call never took effect.
func (s *Service) registerCompensations(registry *saga.ActionRegistry) error {
	if err := saga.Register(registry, KindRestoreTurnover, s.restoreTurnover); err != nil {
		return err
	}
	if err := saga.Register(registry, KindTransferEmployeesBack, s.transferEmployeesBack); err != nil {
		return err
	}
	if err := saga.Register(registry, KindRecreateOrganization, s.recreateOrganization); err != nil {
		return err
	}
	return saga.Register(registry, KindRecreateEmployees, s.recreateEmployees)
}

func (s *Service) restoreTurnover(ctx context.Context, p restoreTurnover) error {
	_, err := s.remote.UpdateTurnover(ctx, p.Snapshot.ID, p.Snapshot.AnnualTurnover, p.Snapshot)
	return err
}

func (s *Service) transferEmployeesBack(ctx context.Context, p transferEmployeesBack) error {
	_, err := s.remote.BatchTransferEmployees(ctx, p.Employees, p.OrgID)
	return err
}

func (s *Service) recreateOrganization(ctx context.Context, p recreateOrganization) error {
	_, err := s.remote.GetOrganization(ctx, p.Snapshot.ID)
	switch {
	case err == nil:
		zerolog.Ctx(ctx).Info().Int64("organization", p.Snapshot.ID).Msg("organization still exists, not recreating")
		return nil
	case !crud.IsNotFound(err):
		return fmt.Errorf("failed to check organization %d: %w", p.Snapshot.ID, err)
	}

	_, err = s.remote.RecreateOrganization(ctx, p.Snapshot)
	return err
}

// recreateEmployees recreates the fired employees still missing from their
// organization. The CRUD service assigns them new identifiers.
func (s *Service) recreateEmployees(ctx context.Context, p recreateEmployees) error {
	current, err := s.remote.GetEmployees(ctx, p.OrgID)
	if err != nil {
		return fmt.Errorf("failed to list employees of organization %d: %w", p.OrgID, err)
	}

	present := make(map[int64]struct{}, len(current))
	for _, e := range current {
		present[e.ID] = struct{}{}
	}

	var missing []crud.EmployeeSpec
	for _, e := range p.Employees {
		if _, ok := present[e.ID]; ok {
			continue
		}
		missing = append(missing, crud.EmployeeSpec{Name: e.Name, Salary: e.Salary, OrganizationID: p.OrgID})
	}
	if len(missing) == 0 {
		return nil
	}

	_, err = s.remote.BatchCreateEmployees(ctx, missing)
	return err
}
