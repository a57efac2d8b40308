package schema

// VaultiqSessionTable represents the 'vaultiq.session' table
type VaultiqSessionTable struct {
	Table             string
	SessionID         string
	UserID            string
	DeviceFingerprint string
	DeviceName        string
	DeviceOS          string
	DeviceType        string
	IsRevoked         string
	RevokedAt         string
	CreatedAt         string
}

// VaultiqSession is the schema definition for vaultiq.session
var VaultiqSession = VaultiqSessionTable{
	Table:             "vaultiq.session",
	SessionID:         "sessionid",
	UserID:            "userid",
	DeviceFingerprint: "devicefingerprint",
	DeviceName:        "devicename",
	DeviceOS:          "deviceos",
	DeviceType:        "devicetype",
	IsRevoked:         "isrevoked",
	RevokedAt:         "revokedat",
	CreatedAt:         "createdat",
}

// Columns returns all standard column names
func (t VaultiqSessionTable) Columns() []string {
	return []string{
		t.SessionID, t.UserID, t.DeviceFingerprint, t.DeviceName, t.DeviceOS,
		t.DeviceType, t.IsRevoked, t.RevokedAt, t.CreatedAt,
	}
}
