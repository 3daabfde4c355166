package models

// Account is the slice of a platform user record the welcome emitter needs.
// Accounts themselves live with the identity provider, not in our store.
type Account struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
}
