package relay

// DirectRequest submits a plain call through the relay. Value is a
// base-unit integer encoded as a decimal string.
type DirectRequest struct {
	To       string `json:"to" binding:"required"`
	Data     string `json:"data" binding:"required"`
	Value    string `json:"value,omitempty"`
	GasLimit uint64 `json:"gasLimit,omitempty"`
	Speed    string `json:"speed,omitempty"`
}

// ForwardRequestPayload mirrors the signed authorization field for
// field. The relay echoes nonce and deadline exactly as signed.
type ForwardRequestPayload struct {
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	Nonce    string `json:"nonce"`
	Deadline uint64 `json:"deadline"`
	Data     string `json:"data" binding:"required"`
}

type GaslessRequest struct {
	Request   ForwardRequestPayload `json:"request" binding:"required"`
	Signature string                `json:"signature" binding:"required"`
}
