package gateway

import (
	"context"
	"fmt"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/saga"
)

const stepDeleteEmployees saga.StepName = "delete_employees"

type fireParams struct {
	OrgID     int64
	Employees []crud.Employee
}

// FireAll deletes every employee of organization orgID. An organization
// without employees is answered without any mutating call.
func (s *Service) FireAll(ctx context.Context, orgID int64) (*FireResponse, error) {
	employees, err := s.remote.GetEmployees(ctx, orgID)
	if err != nil {
		return nil, newServiceError("Firing", err)
	}
	if len(employees) == 0 {
		return &FireResponse{EmployeeCount: 0}, nil
	}

	if _, err := s.executor.Execute(ctx, s.plans[FireAllSaga], fireParams{OrgID: orgID, Employees: employees}); err != nil {
		return nil, newServiceError("Firing", err)
	}
	return &FireResponse{EmployeeCount: len(employees)}, nil
}

func (s *Service) firePlan() (*saga.Plan, error) {
	b := saga.NewPlanBuilder(FireAllSaga)
	if err := b.Append(saga.Step{
		Name:    stepDeleteEmployees,
		Label:   "Delete employees",
		Reaches: "EmployeesDeleted",
		Do:      s.deleteEmployees,
	}); err != nil {
		return nil, err
	}
	return b.Build()
}

func (s *Service) deleteEmployees(ctx context.Context, sc *saga.Context) error {
	p, ok := saga.Lookup[fireParams](sc, saga.ParamsStep)
	if !ok {
		return fmt.Errorf("saga %s started without fire parameters", sc.Saga)
	}

	ids := make([]int64, len(p.Employees))
	for i, e := range p.Employees {
		ids[i] = e.ID
	}

	sc.Push(saga.Record{Kind: KindRecreateEmployees, Payload: recreateEmployees{Employees: p.Employees, OrgID: p.OrgID}})
	return s.remote.BatchDeleteEmployees(ctx, ids)
}
