package models

// ConsentRequest is the body of PUT /consent. Legacy clients may send the bare
// string "accepted" or "rejected" instead of the object form.
type ConsentRequest struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}
