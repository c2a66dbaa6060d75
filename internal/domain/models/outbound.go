package models

// OutboundMessageRequest is a text notification addressed to one phone number.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	PreviewURL bool   `json:"preview_url"`
}
