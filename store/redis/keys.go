package redis

// Redis key naming conventions for courier data.
// All keys start with a configurable prefix, "courier:" by default.

const defaultKeyPrefix = "courier:"

// seqKey is the counter that hands out record ids: courier:action_seq
func (s *Store) seqKey() string { return s.prefix + "action_seq" }

// dataKey is the Hash of id → serialized action: courier:actions
func (s *Store) dataKey() string { return s.prefix + "actions" }

// orderKey is the Sorted Set of ids scored by id: courier:action_ids
func (s *Store) orderKey() string { return s.prefix + "action_ids" }
