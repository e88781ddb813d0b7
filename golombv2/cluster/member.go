package cluster

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guabee/golomb/golombv2/log"
	"github.com/pkg/errors"
)

// Member is a non-zero rank's side of the collective runtime: a single
// websocket to the hub, used synchronously.
type Member struct {
	rank int
	size int
	conn *websocket.Conn
	seq  uint64

	logger *log.Entry
}

// Dial connects rank to the hub at hubAddr (host:port), retrying until
// the hub is up or the timeout expires.
func Dial(hubAddr string, rank, size int, timeout time.Duration) (*Member, error) {
	if rank < 1 || rank >= size {
		return nil, errors.Errorf("member rank must be in [1, %d), got %d", size, rank)
	}

	url := fmt.Sprintf("ws://%s%s", hubAddr, CollectivePath)
	deadline := time.Now().Add(timeout)

	var conn *websocket.Conn
	var err error
	for {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, errors.Wrapf(err, "dial hub %s as rank %d", hubAddr, rank)
		}
		time.Sleep(250 * time.Millisecond)
	}

	m := &Member{
		rank:   rank,
		size:   size,
		conn:   conn,
		logger: log.NewLoggerEntry("cluster-member").WithField("rank", rank),
	}

	if err := conn.WriteJSON(&wireFrame{Type: msgJoin, Rank: rank}); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "send join")
	}

	m.logger.Infof("rank %d joined hub %s", rank, hubAddr)
	return m, nil
}

func (m *Member) do(op string, root int, vals []int64) ([]int64, error) {
	m.seq++

	req := wireFrame{Type: msgOp, Rank: m.rank, Seq: m.seq, Op: op, Root: root, Vals: vals}
	if err := m.conn.WriteJSON(&req); err != nil {
		return nil, errors.Wrapf(err, "rank %d: send %s", m.rank, op)
	}

	var res wireFrame
	if err := m.conn.ReadJSON(&res); err != nil {
		return nil, errors.Wrapf(err, "rank %d: await %s result", m.rank, op)
	}
	if res.Type != msgResult || res.Seq != m.seq || res.Op != op {
		return nil, errors.Errorf("rank %d: unexpected %s/%s seq %d, want %s seq %d", m.rank, res.Type, res.Op, res.Seq, op, m.seq)
	}
	return res.Vals, nil
}

func (m *Member) Rank() int { return m.rank }

func (m *Member) Size() int { return m.size }

func (m *Member) AllReduceMin(v int64) (int64, error) {
	res, err := m.do(opMin, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (m *Member) AllReduceMax(v int64) (int64, error) {
	res, err := m.do(opMax, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (m *Member) AllReduceSum(v int64) (int64, error) {
	res, err := m.do(opSum, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (m *Member) Broadcast(root int, vals []int64) ([]int64, error) {
	return m.do(opBcast, root, vals)
}

func (m *Member) Barrier() error {
	_, err := m.do(opBarrier, 0, nil)
	return err
}

func (m *Member) Close() error {
	return m.conn.Close()
}
