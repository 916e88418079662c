package cache

// Node is an element of a List. The node stores its key so the owner can
// delete the matching map entry in O(1) when the node is evicted.
type Node[K comparable] struct {
	Key  K
	prev *Node[K]
	next *Node[K]
	list *List[K]
}

// List is a doubly-linked recency list.
// The head is the most recently used node, the tail the least recently used.
type List[K comparable] struct {
	head *Node[K]
	tail *Node[K]
	len  int
}

// NewList creates an empty list.
func NewList[K comparable]() *List[K] {
	return &List[K]{}
}

// Len returns the number of nodes in the list.
func (l *List[K]) Len() int {
	return l.len
}

// PushFront adds key at the front and returns its node.
func (l *List[K]) PushFront(key K) *Node[K] {
	node := &Node[K]{Key: key}
	l.linkFront(node)
	return node
}

// MoveToFront marks an existing node as most recently used.
func (l *List[K]) MoveToFront(node *Node[K]) {
	if node == nil || node.list != l || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// Remove detaches node from the list. Removing a detached node is a no-op.
func (l *List[K]) Remove(node *Node[K]) {
	if node == nil || node.list != l {
		return
	}
	l.unlink(node)
}

// RemoveOldest removes and returns the key of the least recently used node.
func (l *List[K]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.Key, true
}

// Oldest returns the least recently used key without removing it.
func (l *List[K]) Oldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	return l.tail.Key, true
}

// Clear detaches every node.
func (l *List[K]) Clear() {
	for n := l.head; n != nil; {
		next := n.next
		n.prev, n.next, n.list = nil, nil, nil
		n = next
	}
	l.head = nil
	l.tail = nil
	l.len = 0
}

func (l *List[K]) linkFront(node *Node[K]) {
	node.list = l
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

func (l *List[K]) unlink(node *Node[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	node.list = nil
	l.len--
}
