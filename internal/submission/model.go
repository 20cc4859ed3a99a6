package submission

import (
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/email"
	"github.com/dmitrymomot/mailrelay/pkg/validator"
)

// Consultation is a stored consultation request.
type Consultation struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization  string    `bson:"organization,omitempty" json:"organization,omitempty"`
	Service       string    `bson:"service,omitempty" json:"service,omitempty"`
	PreferredDate string    `bson:"preferredDate,omitempty" json:"preferredDate,omitempty"`
	Message       string    `bson:"message" json:"message"`
	Client        Client    `bson:"client" json:"client"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// Quote is a stored quote request.
type Quote struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization string    `bson:"organization,omitempty" json:"organization,omitempty"`
	ProjectType  string    `bson:"projectType" json:"projectType"`
	Budget       string    `bson:"budget,omitempty" json:"budget,omitempty"`
	Timeline     string    `bson:"timeline,omitempty" json:"timeline,omitempty"`
	Description  string    `bson:"description" json:"description"`
	Client       Client    `bson:"client" json:"client"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Client describes where a submission came from.
type Client struct {
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	RequestID string `bson:"requestId,omitempty" json:"requestId,omitempty"`
}

func (c Client) metadata() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"ip":        c.IP,
			"userAgent": c.UserAgent,
		},
		"requestId": c.RequestID,
	}
}

const (
	maxNameLen    = 200
	maxFieldLen   = 500
	maxMessageLen = 5000
)

// ConsultationRequest is the JSON body of POST /consultations.
type ConsultationRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Organization  string `json:"organization"`
	Service       string `json:"service"`
	PreferredDate string `json:"preferredDate"`
	Message       string `json:"message"`
}

// Validate checks required fields and length limits.
func (r ConsultationRequest) Validate() error {
	return validator.Apply(
		validator.Required("name", r.Name),
		validator.MaxLen("name", r.Name, maxNameLen),
		validator.Required("email", r.Email),
		validator.Optional(r.Email, validator.Email("email", r.Email)),
		validator.Optional(r.Phone, validator.Phone("phone", r.Phone)),
		validator.MaxLen("organization", r.Organization, maxFieldLen),
		validator.MaxLen("service", r.Service, maxFieldLen),
		validator.MaxLen("preferredDate", r.PreferredDate, maxFieldLen),
		validator.Required("message", r.Message),
		validator.MaxLen("message", r.Message, maxMessageLen),
	)
}

// QuoteRequest is the JSON body of POST /quotes.
type QuoteRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	ProjectType  string `json:"projectType"`
	Budget       string `json:"budget"`
	Timeline     string `json:"timeline"`
	Description  string `json:"description"`
}

// Validate checks required fields and length limits.
func (r QuoteRequest) Validate() error {
	return validator.Apply(
		validator.Required("name", r.Name),
		validator.MaxLen("name", r.Name, maxNameLen),
		validator.Required("email", r.Email),
		validator.Optional(r.Email, validator.Email("email", r.Email)),
		validator.Optional(r.Phone, validator.Phone("phone", r.Phone)),
		validator.MaxLen("organization", r.Organization, maxFieldLen),
		validator.Required("projectType", r.ProjectType),
		validator.MaxLen("projectType", r.ProjectType, maxFieldLen),
		validator.MaxLen("budget", r.Budget, maxFieldLen),
		validator.MaxLen("timeline", r.Timeline, maxFieldLen),
		validator.Required("description", r.Description),
		validator.MaxLen("description", r.Description, maxMessageLen),
	)
}

func (c Consultation) notification() email.Consultation {
	return email.Consultation{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Organization:  c.Organization,
		Service:       c.Service,
		PreferredDate: c.PreferredDate,
		Message:       c.Message,
		Metadata:      c.Client.metadata(),
	}
}

func (q Quote) notification() email.Quote {
	return email.Quote{
		ID:           q.ID,
		Name:         q.Name,
		Email:        q.Email,
		Phone:        q.Phone,
		Organization: q.Organization,
		ProjectType:  q.ProjectType,
		Budget:       q.Budget,
		Timeline:     q.Timeline,
		Description:  q.Description,
		Metadata:     q.Client.metadata(),
	}
}
