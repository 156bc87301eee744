package biometric

import (
	"encoding/base64"
	"strings"
	"time"

	"performa/internal/user"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// Credential is one registered passkey. Revoked keys stay in the table with
// IsActive=false so the audit trail can still reference them.
type Credential struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	CredentialID    string    `gorm:"type:varchar(512);not null;uniqueIndex:uq_biometric_credentials_credential_id"`
	PublicKey       []byte    `gorm:"type:bytea;not null"`
	AttestationType string    `gorm:"type:varchar(50)"`
	Transports      string    `gorm:"type:varchar(200)"`
	AAGUID          []byte    `gorm:"type:bytea"`
	SignCount       int64     `gorm:"not null;default:0"`
	BackupEligible  bool      `gorm:"not null;default:false"`
	BackupState     bool      `gorm:"not null;default:false"`
	DeviceName      string    `gorm:"type:varchar(150)"`
	IsActive        bool      `gorm:"not null;default:true;index"`
	LastUsedAt      *time.Time
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`
}

func (Credential) TableName() string {
	return "biometric_credentials"
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

func (c Credential) toWebAuthn() webauthn.Credential {
	raw, _ := base64.RawURLEncoding.DecodeString(c.CredentialID)

	var transports []protocol.AuthenticatorTransport
	for _, t := range strings.Split(c.Transports, ",") {
		if t != "" {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
	}

	return webauthn.Credential{
		ID:              raw,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.AAGUID,
			SignCount: uint32(c.SignCount),
		},
	}
}

func fromWebAuthn(u *user.User, cred *webauthn.Credential, deviceName string) *Credential {
	transports := make([]string, 0, len(cred.Transport))
	for _, t := range cred.Transport {
		transports = append(transports, string(t))
	}

	return &Credential{
		ID:              uuid.New(),
		CompanyID:       u.CompanyID,
		UserID:          u.ID,
		CredentialID:    encodeCredentialID(cred.ID),
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		Transports:      strings.Join(transports, ","),
		AAGUID:          cred.Authenticator.AAGUID,
		SignCount:       int64(cred.Authenticator.SignCount),
		BackupEligible:  cred.Flags.BackupEligible,
		BackupState:     cred.Flags.BackupState,
		DeviceName:      deviceName,
		IsActive:        true,
	}
}

// passkeyUser adapts a user and its active credentials to webauthn.User.
type passkeyUser struct {
	user        *user.User
	credentials []Credential
}

func (p passkeyUser) WebAuthnID() []byte {
	id := p.user.ID
	return id[:]
}

func (p passkeyUser) WebAuthnName() string {
	switch {
	case p.user.Email != nil:
		return *p.user.Email
	case p.user.Username != nil:
		return *p.user.Username
	}
	return p.user.PersonID
}

func (p passkeyUser) WebAuthnDisplayName() string {
	return p.user.Name
}

func (p passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	out := make([]webauthn.Credential, 0, len(p.credentials))
	for _, c := range p.credentials {
		out = append(out, c.toWebAuthn())
	}
	return out
}

func (p passkeyUser) exclusions() []protocol.CredentialDescriptor {
	out := make([]protocol.CredentialDescriptor, 0, len(p.credentials))
	for _, c := range p.WebAuthnCredentials() {
		out = append(out, c.Descriptor())
	}
	return out
}
