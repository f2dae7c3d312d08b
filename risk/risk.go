package risk

import "errors"

// ErrUpstreamUnavailable marks transport failures and 5xx answers from the
// generative AI endpoint.
var ErrUpstreamUnavailable = errors.New("risk summary upstream unavailable")

// ErrMalformedReport marks responses that could not be decoded into a
// structured report even after fencing cleanup.
var ErrMalformedReport = errors.New("malformed risk report")

var ErrRejectedRequest = errors.New("risk summary request rejected")

// Report is the structured health-risk summary returned by the model.
type Report struct {
	RiskLevel       string   `json:"riskLevel"`
	Summary         string   `json:"summary"`
	Factors         []string `json:"factors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}
