package id

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered, so request ids sort by arrival in logs.
// Init must have been called first.
func New() int64 {
	return node.Generate().Int64()
}

// Format renders an id the way it is echoed in the X-Request-Id header.
func Format(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Parse reads an id produced by Format.
func Parse(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
