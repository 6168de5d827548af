package domain

import (
	"strings"

	dErrors "creditline/pkg/domain-errors"
)

// DNI is a validated 8-digit national identity number.
type DNI string

func (d DNI) String() string { return string(d) }

// ParseDNI validates a raw identifier: after trimming surrounding whitespace
// it must be exactly 8 ASCII digits. Validation happens before any channel is
// touched, so malformed input never generates backend traffic.
func ParseDNI(raw string) (DNI, error) {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) != 8 {
		return "", dErrors.New(dErrors.CodeBadRequest, "dni must be exactly 8 digits")
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] < '0' || trimmed[i] > '9' {
			return "", dErrors.New(dErrors.CodeBadRequest, "dni must contain only digits")
		}
	}
	return DNI(trimmed), nil
}
