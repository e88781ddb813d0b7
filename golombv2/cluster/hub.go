package cluster

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guabee/golomb/golombv2/log"
	"github.com/pkg/errors"
)

// memberFrame is one frame read off a member connection, or the read
// error that ended it.
type memberFrame struct {
	rank  int
	frame wireFrame
	err   error
}

// Hub is rank 0's side of the collective runtime. It listens for the
// other size-1 ranks, then serves every operation by gathering one
// contribution per rank and scattering the reduced result.
type Hub struct {
	size     int
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	joinLock sync.Mutex
	conns    map[int]*websocket.Conn
	ready    chan struct{}

	inbox chan memberFrame
	seq   uint64

	closeOnce sync.Once
	logger    *log.Entry
}

// NewHub starts listening on addr (host:port, port may be 0) for a
// collective of the given size. Call WaitReady before the first
// operation.
func NewHub(addr string, size int) (*Hub, error) {
	if size < 2 {
		return nil, errors.Errorf("hub needs at least 2 ranks, got %d", size)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}

	h := &Hub{
		size:     size,
		listener: listener,
		conns:    make(map[int]*websocket.Conn),
		ready:    make(chan struct{}),
		inbox:    make(chan memberFrame, size*4),
		logger:   log.NewLoggerEntry("cluster-hub"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CollectivePath, h.handleJoin)
	h.server = &http.Server{Handler: mux}

	go func() {
		err := h.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			h.logger.Errorf("hub server stopped: %s", err)
		}
	}()

	h.logger.Infof("collective hub listening on %s for %d ranks", h.Addr(), size)
	return h, nil
}

// Addr is the hub's actual listen address.
func (h *Hub) Addr() string {
	return h.listener.Addr().String()
}

func (h *Hub) handleJoin(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("upgrade failed: %s", err)
		return
	}

	var join wireFrame
	if err := conn.ReadJSON(&join); err != nil || join.Type != msgJoin {
		h.logger.Errorf("bad join handshake: %v", err)
		conn.Close()
		return
	}

	h.joinLock.Lock()
	if join.Rank < 1 || join.Rank >= h.size || h.conns[join.Rank] != nil {
		h.joinLock.Unlock()
		h.logger.Errorf("rejecting join for rank %d", join.Rank)
		conn.Close()
		return
	}
	h.conns[join.Rank] = conn
	joined := len(h.conns)
	h.joinLock.Unlock()

	h.logger.Infof("rank %d joined (%d/%d)", join.Rank, joined, h.size-1)

	go h.pump(join.Rank, conn)

	if joined == h.size-1 {
		close(h.ready)
	}
}

// pump forwards every frame from one member into the inbox.
func (h *Hub) pump(rank int, conn *websocket.Conn) {
	for {
		var f wireFrame
		if err := conn.ReadJSON(&f); err != nil {
			h.inbox <- memberFrame{rank: rank, err: err}
			return
		}
		h.inbox <- memberFrame{rank: rank, frame: f}
	}
}

// WaitReady blocks until all ranks joined or the timeout expires.
func (h *Hub) WaitReady(timeout time.Duration) error {
	select {
	case <-h.ready:
		return nil
	case <-time.After(timeout):
		h.joinLock.Lock()
		joined := len(h.conns)
		h.joinLock.Unlock()
		return errors.Errorf("collective incomplete after %s: %d/%d ranks joined", timeout, joined, h.size-1)
	}
}

// do runs one collective operation with rank 0's contribution vals.
func (h *Hub) do(op string, root int, vals []int64) ([]int64, error) {
	select {
	case <-h.ready:
	default:
		return nil, errors.New("collective not ready; call WaitReady first")
	}

	h.seq++
	contribs := map[int][]int64{0: vals}

	for len(contribs) < h.size {
		mf := <-h.inbox
		if mf.err != nil {
			return nil, errors.Wrapf(mf.err, "%s: rank %d dropped", op, mf.rank)
		}
		f := mf.frame
		if f.Type != msgOp || f.Seq != h.seq || f.Op != op {
			return nil, errors.Errorf("%s seq %d: rank %d sent %s/%s seq %d", op, h.seq, mf.rank, f.Type, f.Op, f.Seq)
		}
		if _, dup := contribs[mf.rank]; dup {
			return nil, errors.Errorf("%s seq %d: duplicate contribution from rank %d", op, h.seq, mf.rank)
		}
		contribs[mf.rank] = f.Vals
	}

	result, err := reduce(op, root, contribs)
	if err != nil {
		return nil, err
	}

	out := wireFrame{Type: msgResult, Seq: h.seq, Op: op, Vals: result}
	for rank, conn := range h.conns {
		if err := conn.WriteJSON(&out); err != nil {
			return nil, errors.Wrapf(err, "%s: send result to rank %d", op, rank)
		}
	}
	return result, nil
}

func (h *Hub) Rank() int { return 0 }

func (h *Hub) Size() int { return h.size }

func (h *Hub) AllReduceMin(v int64) (int64, error) {
	res, err := h.do(opMin, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (h *Hub) AllReduceMax(v int64) (int64, error) {
	res, err := h.do(opMax, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (h *Hub) AllReduceSum(v int64) (int64, error) {
	res, err := h.do(opSum, 0, []int64{v})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

func (h *Hub) Broadcast(root int, vals []int64) ([]int64, error) {
	return h.do(opBcast, root, vals)
}

func (h *Hub) Barrier() error {
	_, err := h.do(opBarrier, 0, nil)
	return err
}

func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		h.joinLock.Lock()
		for _, conn := range h.conns {
			conn.Close()
		}
		h.joinLock.Unlock()
		h.server.Close()
	})
	return nil
}
