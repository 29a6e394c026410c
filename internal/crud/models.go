package crud

import (
	"encoding/xml"
)

// OrganizationType is the legal form of an organization.
type OrganizationType string

const (
	Commercial            OrganizationType = "COMMERCIAL"
	Government            OrganizationType = "GOVERNMENT"
	PrivateLimitedCompany OrganizationType = "PRIVATE_LIMITED_COMPANY"
	OpenJointStockCompany OrganizationType = "OPEN_JOINT_STOCK_COMPANY"
)

type Coordinates struct {
	X int64   `xml:"x"`
	Y float32 `xml:"y"`
}

type Location struct {
	X    float32 `xml:"x"`
	Y    int64   `xml:"y"`
	Name string  `xml:"name"`
}

type Address struct {
	Street string    `xml:"street"`
	Town   *Location `xml:"town,omitempty"`
}

// Organization is an organization as stored by the CRUD service. The gateway
// only ever holds snapshots of it for the duration of one request.
type Organization struct {
	XMLName         xml.Name         `xml:"organization"`
	ID              int64            `xml:"id" validate:"gt=0"`
	Name            string           `xml:"name" validate:"required"`
	CreationDate    string           `xml:"creationDate,omitempty"`
	AnnualTurnover  float32          `xml:"annualTurnover" validate:"gte=0"`
	FullName        string           `xml:"fullName,omitempty"`
	Coordinates     Coordinates      `xml:"coordinates"`
	Type            OrganizationType `xml:"type" validate:"required"`
	OfficialAddress *Address         `xml:"officialAddress,omitempty"`
}

// OrganizationRequest is the body of a full update. It carries every field
// except the identifier, which is part of the URL.
type OrganizationRequest struct {
	XMLName         xml.Name         `xml:"organization"`
	Name            string           `xml:"name"`
	Coordinates     Coordinates      `xml:"coordinates"`
	AnnualTurnover  float32          `xml:"annualTurnover"`
	FullName        string           `xml:"fullName,omitempty"`
	Type            OrganizationType `xml:"type"`
	OfficialAddress *Address         `xml:"officialAddress,omitempty"`
}

func NewOrganizationRequest(org Organization, turnover float32) OrganizationRequest {
	return OrganizationRequest{
		Name:            org.Name,
		Coordinates:     org.Coordinates,
		AnnualTurnover:  turnover,
		FullName:        org.FullName,
		Type:            org.Type,
		OfficialAddress: org.OfficialAddress,
	}
}

type Employee struct {
	XMLName      xml.Name      `xml:"employee"`
	ID           int64         `xml:"id" validate:"gt=0"`
	Name         string        `xml:"name" validate:"required"`
	Salary       int64         `xml:"salary"`
	Organization *Organization `xml:"organization,omitempty"`
}

// OrganizationID returns the identifier of the owning organization, or 0 if
// the CRUD service did not embed it.
func (e Employee) OrganizationID() int64 {
	if e.Organization == nil {
		return 0
	}
	return e.Organization.ID
}

type EmployeeList struct {
	XMLName   xml.Name   `xml:"employees"`
	Employees []Employee `xml:"employee" validate:"dive"`
}

// EmployeeSpec describes an employee to create or reassign. ID is empty for
// creation and names the existing employee for a batch update.
type EmployeeSpec struct {
	XMLName        xml.Name `xml:"employee"`
	ID             int64    `xml:"id,omitempty"`
	Name           string   `xml:"name"`
	Salary         int64    `xml:"salary"`
	OrganizationID int64    `xml:"organizationId"`
}

type EmployeeSpecList struct {
	XMLName   xml.Name       `xml:"employees"`
	Employees []EmployeeSpec `xml:"employee"`
}

type IDList struct {
	XMLName xml.Name `xml:"ids"`
	IDs     []int64  `xml:"id"`
}

// AppError is the error body both the CRUD service and the gateway answer with.
type AppError struct {
	XMLName xml.Name `xml:"appError"`
	Code    int      `xml:"code"`
	Message string   `xml:"message"`
}
