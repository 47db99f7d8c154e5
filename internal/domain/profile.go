// Package domain holds the value types shared by the swipe engine, its
// collaborators and the matchmaking backend.
package domain

import "errors"

// ErrMissingProfileID is returned when a candidate record carries no identity.
var ErrMissingProfileID = errors.New("profile id is required")

// Profile is a candidate record owned by Discovery.
//
// ID is the only attribute the engine relies on; everything else is an open
// bag of display attributes passed through untouched.
type Profile struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Validate rejects records without an identity.
func (p Profile) Validate() error {
	if p.ID == "" {
		return ErrMissingProfileID
	}
	return nil
}

// Attr returns a display attribute, or "" when absent.
func (p Profile) Attr(key string) string {
	return p.Attributes[key]
}
