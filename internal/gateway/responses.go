package gateway

import (
	"encoding/xml"

	"github.com/fortressi/orgmanager/internal/crud"
)

// Acquiring is the result of a committed acquisition.
type Acquiring struct {
	AcquirerOrganization crud.Organization
	// AcquiredOrganization is the snapshot taken before it was removed.
	AcquiredOrganization   crud.Organization
	NumberOfEmployeesMoved int
}

// MarshalXML renders the organizations under their own element names rather
// than <organization>.
func (a Acquiring) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = element("acquiring")
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeElement(a.AcquirerOrganization, element("acquirerOrganization")); err != nil {
		return err
	}
	if err := e.EncodeElement(a.AcquiredOrganization, element("acquiredOrganization")); err != nil {
		return err
	}
	if err := e.EncodeElement(a.NumberOfEmployeesMoved, element("numberOfEmployeesMoved")); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

// FireResponse is the number of employees fired, rendered as
// <employeeCount>N</employeeCount>.
type FireResponse struct {
	XMLName       xml.Name `xml:"employeeCount"`
	EmployeeCount int      `xml:",chardata"`
}
