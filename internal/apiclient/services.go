package apiclient

import (
	"context"
	"fmt"

	"consular/internal/domain"
)

// Services is the typed facade over the endpoint map.
type Services struct {
	c *Client
}

func NewServices(c *Client) *Services {
	return &Services{c: c}
}

func (s *Services) Profile(ctx context.Context) Result[domain.Profile] {
	return Decode[domain.Profile](s.c.Get(ctx, EndpointProfile))
}

func (s *Services) UpdateProfile(ctx context.Context, p domain.Profile) Result[domain.Profile] {
	return Decode[domain.Profile](s.c.Put(ctx, EndpointProfile, p))
}

// Applications lists the citizen's applications, optionally filtered by status.
func (s *Services) Applications(ctx context.Context, status domain.ApplicationStatus) Result[[]domain.ApplicationSummary] {
	var opts []RequestOption
	if status != "" {
		opts = append(opts, WithQuery("status", string(status)))
	}
	return Decode[[]domain.ApplicationSummary](s.c.Get(ctx, EndpointApplications, opts...))
}

func (s *Services) Application(ctx context.Context, id string) Result[domain.ApplicationSummary] {
	return Decode[domain.ApplicationSummary](s.c.Get(ctx, applicationEndpoint(id)))
}

func (s *Services) Track(ctx context.Context, id string) Result[[]domain.TrackingEvent] {
	return Decode[[]domain.TrackingEvent](s.c.Get(ctx, trackingEndpoint(id)))
}

func (s *Services) UploadDocument(ctx context.Context, docType string, ref *domain.FileRef) Result[domain.UploadedDocument] {
	payload, err := NewMultipartBuilder().
		Field("type", docType).
		File("file", ref).
		Build()
	if err != nil {
		return failure[domain.UploadedDocument](CodeInvalidInput, 0, err.Error())
	}
	return Decode[domain.UploadedDocument](s.c.Upload(ctx, EndpointDocuments, payload))
}

func (s *Services) Appointments(ctx context.Context) Result[[]domain.Appointment] {
	return Decode[[]domain.Appointment](s.c.Get(ctx, EndpointAppointments))
}

func (s *Services) BookAppointment(ctx context.Context, req domain.AppointmentRequest) Result[domain.Appointment] {
	return Decode[domain.Appointment](s.c.Post(ctx, EndpointAppointments, req))
}

func (s *Services) Messages(ctx context.Context) Result[[]domain.Message] {
	return Decode[[]domain.Message](s.c.Get(ctx, EndpointMessages))
}

func (s *Services) SubmitPassport(ctx context.Context, payload *Multipart) Result[domain.SubmissionReceipt] {
	return s.SubmitService(ctx, domain.ServiceTypePassport, payload)
}

// SubmitService posts a finished application to the service's own endpoint.
func (s *Services) SubmitService(ctx context.Context, service domain.ServiceType, payload *Multipart) Result[domain.SubmissionReceipt] {
	endpoint, ok := ServiceEndpoint(service)
	if !ok {
		return failure[domain.SubmissionReceipt](CodeInvalidInput, 0, fmt.Sprintf("unknown service %q", service))
	}
	return Decode[domain.SubmissionReceipt](s.c.Upload(ctx, endpoint, payload))
}

func (s *Services) AdminApplications(ctx context.Context, status domain.ApplicationStatus) Result[[]domain.ApplicationSummary] {
	var opts []RequestOption
	if status != "" {
		opts = append(opts, WithQuery("status", string(status)))
	}
	return Decode[[]domain.ApplicationSummary](s.c.Get(ctx, EndpointAdminApplications, opts...))
}

func (s *Services) AdminUpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) Result[domain.ApplicationSummary] {
	return Decode[domain.ApplicationSummary](s.c.Patch(ctx, adminStatusEndpoint(id), update))
}
