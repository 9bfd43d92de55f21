package model

// Form is a marketing form as read from the upstream CRM.
type Form struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HTMLContent string `json:"html_content"`
}

// FormResponse is the public wire shape of a form. Slug is derived from Name
// on every response and is never stored upstream.
type FormResponse struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	HTMLContent string `json:"htmlContent"`
}

// TokenRequest is the body of POST /token.
type TokenRequest struct {
	APIKey string `json:"apiKey"`
}

// TokenResponse is returned by POST /token on success.
type TokenResponse struct {
	Token string `json:"token"`
}
