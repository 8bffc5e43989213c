package apiclient

import (
	"fmt"
	"net/url"

	"consular/internal/domain"
)

// Remote endpoints, relative to the configured base URL.
const (
	EndpointProfile      = "/citizen/profile"
	EndpointApplications = "/citizen/applications"
	EndpointDocuments    = "/citizen/documents"
	EndpointAppointments = "/citizen/appointments"
	EndpointMessages     = "/citizen/messages"

	EndpointAdminApplications = "/admin/applications"
)

var serviceEndpoints = map[domain.ServiceType]string{
	domain.ServiceTypePassport:                   "/services/passport",
	domain.ServiceTypeAttestation:                "/services/attestation",
	domain.ServiceTypeNoObjectionLetter:          "/services/noc",
	domain.ServiceTypeEmergencyTravelCertificate: "/services/etc",
}

// ServiceEndpoint returns the submission endpoint of a consular service.
func ServiceEndpoint(service domain.ServiceType) (string, bool) {
	ep, ok := serviceEndpoints[service]
	return ep, ok
}

func applicationEndpoint(id string) string {
	return fmt.Sprintf("%s/%s", EndpointApplications, url.PathEscape(id))
}

func trackingEndpoint(id string) string {
	return applicationEndpoint(id) + "/tracking"
}

func adminStatusEndpoint(id string) string {
	return fmt.Sprintf("%s/%s/status", EndpointAdminApplications, url.PathEscape(id))
}
