// Package domain holds the canonical types shared by every query channel:
// the validated identifier, the channel enumeration, and the normalized
// result every backend response is mapped into.
package domain

// Channel identifies which backend produced a result.
type Channel string

const (
	// ChannelFNB is the authenticated financing API (primary).
	ChannelFNB Channel = "fnb"
	// ChannelGASO is the analytic dashboard backend (secondary).
	ChannelGASO Channel = "gaso"
)

// Valid reports whether the channel is one of the known backends.
func (c Channel) Valid() bool {
	return c == ChannelFNB || c == ChannelGASO
}

// QueryState classifies the outcome of a single channel consultation.
type QueryState string

const (
	// StateSuccess means the client was found and has an active credit line.
	StateSuccess QueryState = "success"
	// StateNoCredit means the client was found but has no usable credit line.
	StateNoCredit QueryState = "no_credit"
	// StateNotFound means the client is unknown to the channel.
	StateNotFound QueryState = "not_found"
	// StateError means the channel could not be queried.
	StateError QueryState = "error"
)

// ClientRecord is the normalized client view assembled from a channel
// response. Optional fields are empty when the channel did not provide them.
type ClientRecord struct {
	DNI           string  `json:"dni"`
	Name          string  `json:"nombre"`
	Status        string  `json:"estado,omitempty"`
	Balance       string  `json:"saldo,omitempty"`
	Account       string  `json:"cuentaContrato,omitempty"`
	Segment       string  `json:"nse,omitempty"`
	Address       string  `json:"direccion,omitempty"`
	Document      string  `json:"documento,omitempty"`
	AccountStatus string  `json:"estadoCta,omitempty"`
	Eligible      bool    `json:"tieneLineaCredito"`
	CreditLimit   float64 `json:"lineaCredito"`
	Channel       Channel `json:"segmento"`
}

// QueryResult is the canonical outcome of consulting one or more channels.
// Success is true only for SUCCESS and NO_CREDIT states; HasOffer only for
// SUCCESS.
type QueryResult struct {
	Success      bool          `json:"success"`
	DNI          string        `json:"dni"`
	Channel      Channel       `json:"channel"`
	State        QueryState    `json:"state"`
	Record       *ClientRecord `json:"record,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	HasOffer     bool          `json:"has_offer"`
}

// FoundClient reports whether the result carries a usable client record.
func (r QueryResult) FoundClient() bool {
	return r.Success && r.Record != nil && r.State == StateSuccess
}

// ErrorResult builds an ERROR-state result for the given channel.
func ErrorResult(dni DNI, channel Channel, message string) QueryResult {
	return QueryResult{
		DNI:          dni.String(),
		Channel:      channel,
		State:        StateError,
		ErrorMessage: message,
	}
}

// NotFoundResult builds a NOT_FOUND result for the given channel.
func NotFoundResult(dni DNI, channel Channel, message string) QueryResult {
	return QueryResult{
		DNI:          dni.String(),
		Channel:      channel,
		State:        StateNotFound,
		ErrorMessage: message,
	}
}

// FoundResult builds a SUCCESS or NO_CREDIT result from a client record,
// keyed off the record's eligibility flag.
func FoundResult(dni DNI, channel Channel, record *ClientRecord) QueryResult {
	state := StateNoCredit
	if record.Eligible {
		state = StateSuccess
	}
	return QueryResult{
		Success:  true,
		DNI:      dni.String(),
		Channel:  channel,
		State:    state,
		Record:   record,
		HasOffer: record.Eligible,
	}
}
