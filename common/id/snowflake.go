// Package id issues ingest identifiers for accepted Slack events.
package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node. Each running server must use a
// distinct node ID (0-1023).
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	if err != nil {
		return fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return nil
}

// New returns a time-ordered ingest ID. Init must have succeeded first.
func New() int64 {
	return node.Generate().Int64()
}

// Base36 renders an ingest ID in the compact form used in log lines.
func Base36(v int64) string {
	return snowflake.ID(v).Base36()
}
