package models

import "strings"

// Hospital is one directory record. Records are immutable after load;
// a directory reload replaces the whole generation rather than mutating
// records in place.
type Hospital struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	City        string            `json:"city"`
	State       string            `json:"state,omitempty"`
	Address     string            `json:"address,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Specialties string            `json:"specialties,omitempty"`
	Type        string            `json:"type,omitempty"` // e.g. "Network", "Non-Network"
	Pincode     string            `json:"pincode,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"` // unmapped source columns
}

// NameAndAddress is the haystack for exact-match token filtering.
func (h *Hospital) NameAndAddress() string {
	return strings.ToLower(h.Name + " " + h.Address)
}
