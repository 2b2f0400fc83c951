package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator issues human-quotable, time-ordered references.
type Generator struct {
	node *snowflake.Node
}

// New node ids range 0..1023 and must differ between running instances.
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next base58 encoded snowflake, e.g. "3QXjyFGPayd"
func (g *Generator) Next() string {
	return g.node.Generate().Base58()
}
