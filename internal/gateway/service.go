// Package gateway implements the composite operations exposed to API
// clients, acquire and fire-all, as compensating sagas over the CRUD service.
package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/saga"
)

const (
	AcquireSaga saga.Name = "acquire"
	FireAllSaga saga.Name = "fire_all"
)

// Remote is the part of the CRUD service the sagas need.
type Remote interface {
	GetOrganization(ctx context.Context, id int64) (*crud.Organization, error)
	UpdateTurnover(ctx context.Context, id int64, turnover float32, snapshot crud.Organization) (*crud.Organization, error)
	DeleteOrganization(ctx context.Context, id int64) error
	RecreateOrganization(ctx context.Context, snapshot crud.Organization) (*crud.Organization, error)
	GetEmployees(ctx context.Context, orgID int64) ([]crud.Employee, error)
	BatchTransferEmployees(ctx context.Context, employees []crud.Employee, targetID int64) ([]crud.Employee, error)
	BatchDeleteEmployees(ctx context.Context, ids []int64) error
	BatchCreateEmployees(ctx context.Context, specs []crud.EmployeeSpec) ([]crud.Employee, error)
}

var _ Remote = (*crud.Client)(nil)

type Service struct {
	remote   Remote
	executor *saga.Executor
	plans    map[saga.Name]*saga.Plan
}

func NewService(remote Remote, logger zerolog.Logger) (*Service, error) {
	s := &Service{remote: remote}

	registry := saga.NewActionRegistry()
	if err := s.registerCompensations(registry); err != nil {
		return nil, fmt.Errorf("failed to register compensations: %w", err)
	}
	s.executor = saga.NewExecutor(registry, logger)

	acquire, err := s.acquirePlan()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s plan: %w", AcquireSaga, err)
	}
	fire, err := s.firePlan()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s plan: %w", FireAllSaga, err)
	}
	s.plans = map[saga.Name]*saga.Plan{AcquireSaga: acquire, FireAllSaga: fire}

	return s, nil
}

// Plan returns the plan of saga name.
func (s *Service) Plan(name saga.Name) (*saga.Plan, bool) {
	p, ok := s.plans[name]
	return p, ok
}
