package utilities

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// loginNamespace scopes name-based login ids.
var loginNamespace = uuid.MustParse("6f1c6c2e-3c59-4f3e-9a55-2f0c7b8c1a41")

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeID(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}

// LoginID derives a stable id for one login event of one user. The same
// (userID, logID) pair always yields the same id.
func LoginID(userID, logID string) string {
	return uuid.NewSHA1(loginNamespace, []byte(userID+"\x00"+logID)).String()
}
