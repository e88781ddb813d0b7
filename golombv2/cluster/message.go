package cluster

import (
	"github.com/pkg/errors"
)

// CollectivePath is the websocket endpoint the hub serves.
const CollectivePath = "/golomb/collective"

const (
	msgJoin   = "join"
	msgOp     = "op"
	msgResult = "result"
)

const (
	opMin     = "min"
	opMax     = "max"
	opSum     = "sum"
	opBcast   = "bcast"
	opBarrier = "barrier"
)

// wireFrame is one collective message. Members send join once, then
// strictly alternate op/result with the hub; Seq pairs them up.
type wireFrame struct {
	Type string  `json:"type"`
	Rank int     `json:"rank"`
	Seq  uint64  `json:"seq,omitempty"`
	Op   string  `json:"op,omitempty"`
	Root int     `json:"root,omitempty"`
	Vals []int64 `json:"vals,omitempty"`
}

// reduce combines one contribution per rank into the operation result.
func reduce(op string, root int, contribs map[int][]int64) ([]int64, error) {
	if op == opBarrier {
		return nil, nil
	}
	if op == opBcast {
		vals, ok := contribs[root]
		if !ok {
			return nil, errors.Errorf("broadcast root %d contributed nothing", root)
		}
		return vals, nil
	}

	var result []int64
	for rank, vals := range contribs {
		if result == nil {
			result = make([]int64, len(vals))
			copy(result, vals)
			continue
		}
		if len(vals) != len(result) {
			return nil, errors.Errorf("rank %d contributed %d values, want %d", rank, len(vals), len(result))
		}
		for i, v := range vals {
			switch op {
			case opMin:
				if v < result[i] {
					result[i] = v
				}
			case opMax:
				if v > result[i] {
					result[i] = v
				}
			case opSum:
				result[i] += v
			default:
				return nil, errors.Errorf("unknown collective op %q", op)
			}
		}
	}
	return result, nil
}
