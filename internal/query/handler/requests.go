package handler

import (
	"github.com/asaskevich/govalidator"

	"creditline/internal/domain"
	dErrors "creditline/pkg/domain-errors"
)

// QueryRequest is the inbound body for all query endpoints.
type QueryRequest struct {
	DNI string `json:"dni"`
}

// Validate checks the transport-level shape before the domain parser runs, so
// obviously malformed input is rejected with a precise message.
func (r QueryRequest) Validate() error {
	if !govalidator.StringLength(r.DNI, "1", "32") {
		return dErrors.New(dErrors.CodeBadRequest, "dni is required")
	}
	return nil
}

// Parse validates and converts the request into the domain identifier.
func (r QueryRequest) Parse() (domain.DNI, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	return domain.ParseDNI(r.DNI)
}
