package schema

// VaultiqRevocationTable represents the 'vaultiq.revocation' table
type VaultiqRevocationTable struct {
	Table       string
	SessionID   string
	UserID      string
	Kind        string
	Note        string
	TriggeredBy string
	RevokedAt   string
}

// VaultiqRevocation is the schema definition for vaultiq.revocation
var VaultiqRevocation = VaultiqRevocationTable{
	Table:       "vaultiq.revocation",
	SessionID:   "sessionid",
	UserID:      "userid",
	Kind:        "kind",
	Note:        "note",
	TriggeredBy: "triggeredby",
	RevokedAt:   "revokedat",
}

// Columns returns all standard column names
func (t VaultiqRevocationTable) Columns() []string {
	return []string{
		t.SessionID, t.UserID, t.Kind, t.Note, t.TriggeredBy, t.RevokedAt,
	}
}
