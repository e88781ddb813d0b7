package util

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type (
	PubSubMsgType      interface{}
	PubSubCancelFunc   func()
	PubSubCallbackFunc func(PubSubMsgType)
)

type subscriber struct {
	name     string
	callback PubSubCallbackFunc
}

// topic fans one message out to every subscriber. The last published
// message is cached so a late subscriber still observes the current value.
type topic struct {
	id       string
	lock     sync.RWMutex
	subs     map[string]*subscriber
	cacheMsg PubSubMsgType
	hasCache bool
}

func (t *topic) publish(msg PubSubMsgType) {
	t.lock.Lock()
	t.cacheMsg = msg
	t.hasCache = true
	subs := make([]*subscriber, 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.lock.Unlock()

	for _, sub := range subs {
		sub.callback(msg)
	}
}

// PubSub is a tiny in-process topic bus.
type PubSub struct {
	lock    sync.Mutex
	topics  map[string]*topic
	nameSeq uint32
}

func NewPubSub() *PubSub {
	return &PubSub{
		topics: make(map[string]*topic),
	}
}

func (ps *PubSub) getTopic(id string) *topic {
	ps.lock.Lock()
	defer ps.lock.Unlock()

	t, found := ps.topics[id]
	if !found {
		t = &topic{id: id, subs: make(map[string]*subscriber)}
		ps.topics[id] = t
	}
	return t
}

func (ps *PubSub) Publish(topicId string, msg PubSubMsgType) {
	ps.getTopic(topicId).publish(msg)
}

// SubscribeFunc registers callback on topicId. The returned cancel func
// removes the subscription; calling it more than once is harmless.
func (ps *PubSub) SubscribeFunc(name, topicId string, callback PubSubCallbackFunc) PubSubCancelFunc {
	if name == "" {
		name = fmt.Sprintf("subscriber-%d", atomic.AddUint32(&ps.nameSeq, 1))
	}

	t := ps.getTopic(topicId)
	sub := &subscriber{name: name, callback: callback}

	t.lock.Lock()
	t.subs[name] = sub
	cached, hasCache := t.cacheMsg, t.hasCache
	t.lock.Unlock()

	if hasCache {
		callback(cached)
	}

	return func() {
		t.lock.Lock()
		delete(t.subs, name)
		t.lock.Unlock()
	}
}
