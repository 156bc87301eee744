package biometric

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

type LoginBeginRequest struct {
	CompanyCode string `json:"companyCode" binding:"required"`
	Identifier  string `json:"identifier" binding:"required"`
}

type LoginBeginResponse struct {
	SessionID string                        `json:"sessionId"`
	Options   *protocol.CredentialAssertion `json:"options"`
}

type CredentialResponse struct {
	ID         string     `json:"id"`
	DeviceName string     `json:"deviceName"`
	Transports string     `json:"transports,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
