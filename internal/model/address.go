package model

// AddressUnavailable is shown wherever a reverse lookup produced nothing.
const AddressUnavailable = "Address not available"

// AddressInfo is the outcome of a reverse geocode. Success is false when
// the lookup failed or found nothing; Address then holds the placeholder.
type AddressInfo struct {
	Address    string            `json:"address"`
	Components map[string]string `json:"components,omitempty"`
	Success    bool              `json:"success"`
}

// UnavailableAddress returns the placeholder AddressInfo.
func UnavailableAddress() AddressInfo {
	return AddressInfo{Address: AddressUnavailable}
}
