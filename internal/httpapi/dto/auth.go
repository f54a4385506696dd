package dto

// TokenRequest pide un access token para un actor del sistema. El cliente
// API se autentica con clientId/clientSecret contra los clientes
// configurados; el resto describe al actor que el token representa.
type TokenRequest struct {
	ClientID           string   `json:"clientId"`
	ClientSecret       string   `json:"clientSecret"`
	UserID             string   `json:"userId"`
	OrganizationID     string   `json:"organizationId"`
	Roles              []string `json:"roles"`
	MFACompleted       bool     `json:"mfaCompleted,omitempty"`
	AuthorizedPatients []string `json:"authorizedPatients,omitempty"`
}

// TokenResponse entrega el token emitido.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}
