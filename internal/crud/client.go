// Package crud is a typed client for the organization/employee CRUD service.
//
// Every call is a single round trip on a fresh connection. Failures to reach
// the service or decode its answer are reported as *ClientError, rejections
// (status >= 400) as *APIError carrying the response body.
package crud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fortressi/orgmanager/internal/telemetry"
)

const maxBodySize = 4 << 20

// Config holds the CRUD client configuration.
type Config struct {
	BaseURL string
	// Timeout bounds each remote call. Zero disables the bound.
	Timeout time.Duration
	// ReadRetries is how many times a failed read is retried. Mutating calls
	// are never retried.
	ReadRetries   uint
	RetryInterval time.Duration
	// InsecureSkipVerify accepts the CRUD service's self-signed certificate.
	InsecureSkipVerify bool
}

// DefaultConfig returns the configuration of the reference deployment.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://spring-wildfly:8443/soa/api/v1",
		Timeout:       10 * time.Second,
		ReadRetries:   2,
		RetryInterval: 200 * time.Millisecond,
	}
}

type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	validate *validator.Validate

	readRetries   uint
	retryInterval time.Duration
}

func NewClient(cfg Config) *Client {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed deployments
		},
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          &http.Client{Transport: transport},
		timeout:       cfg.Timeout,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		readRetries:   cfg.ReadRetries,
		retryInterval: cfg.RetryInterval,
	}
}

func (c *Client) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	return retryRead(ctx, c, func() (*Organization, error) {
		var org Organization
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/organizations/%d", id), nil, &org); err != nil {
			return nil, err
		}
		return &org, nil
	})
}

// UpdateTurnover replaces organization id with snapshot, changing only its
// annual turnover.
func (c *Client) UpdateTurnover(ctx context.Context, id int64, turnover float32, snapshot Organization) (*Organization, error) {
	var org Organization
	body := NewOrganizationRequest(snapshot, turnover)
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/organizations/%d", id), body, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) DeleteOrganization(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/organizations/%d", id), nil, nil)
}

// RecreateOrganization inserts snapshot again under its original identifier.
// It is only meant for compensating a deletion.
func (c *Client) RecreateOrganization(ctx context.Context, snapshot Organization) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, http.MethodPost, "/organizations/compensate", snapshot, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetEmployees lists every employee of organization orgID, unpaged.
func (c *Client) GetEmployees(ctx context.Context, orgID int64) ([]Employee, error) {
	return retryRead(ctx, c, func() ([]Employee, error) {
		var list EmployeeList
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/organizations/%d/employees?size=0", orgID), nil, &list); err != nil {
			return nil, err
		}
		return list.Employees, nil
	})
}

// BatchTransferEmployees reassigns employees to organization targetID,
// keeping their names and salaries.
func (c *Client) BatchTransferEmployees(ctx context.Context, employees []Employee, targetID int64) ([]Employee, error) {
	specs := make([]EmployeeSpec, len(employees))
	for i, e := range employees {
		specs[i] = EmployeeSpec{ID: e.ID, Name: e.Name, Salary: e.Salary, OrganizationID: targetID}
	}

	var list EmployeeList
	if err := c.do(ctx, http.MethodPost, "/employees/batch/update", EmployeeSpecList{Employees: specs}, &list); err != nil {
		return nil, err
	}
	return list.Employees, nil
}

func (c *Client) BatchDeleteEmployees(ctx context.Context, ids []int64) error {
	return c.do(ctx, http.MethodPost, "/employees/batch/delete", IDList{IDs: ids}, nil)
}

// BatchCreateEmployees creates employees from specs. The CRUD service assigns
// fresh identifiers; any ID set on a spec is ignored.
func (c *Client) BatchCreateEmployees(ctx context.Context, specs []EmployeeSpec) ([]Employee, error) {
	create := make([]EmployeeSpec, len(specs))
	for i, s := range specs {
		s.ID = 0
		create[i] = s
	}

	var list EmployeeList
	if err := c.do(ctx, http.MethodPost, "/employees/batch/create", EmployeeSpecList{Employees: create}, &list); err != nil {
		return nil, err
	}
	return list.Employees, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := xml.Marshal(body)
		if err != nil {
			return &ClientError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	req.Close = true
	req.Header.Set("Connection", "close")
	req.Header.Set("Accept", "application/xml")
	if body != nil {
		req.Header.Set("Content-Type", "application/xml")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	zerolog.Ctx(ctx).Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("crud call")
	telemetry.GetMetrics().CrudCallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", resp.StatusCode),
	))

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}

	if err := xml.Unmarshal(data, out); err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if err := c.validate.Struct(out); err != nil {
		return &ClientError{Op: op, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return nil
}
