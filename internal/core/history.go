package core

// HistoryCapacity is how many transactions an account keeps in memory.
const HistoryCapacity = 10

// History is a fixed-capacity ring of transactions, newest first. It is an
// audit window, not the source of truth for the balance.
type History struct {
	buf  [HistoryCapacity]*Transaction
	head int // slot of the newest entry
	n    int
}

// Push prepends tx. When the ring is full the oldest entry is overwritten and
// returned so the caller can drop it from storage too.
func (h *History) Push(tx *Transaction) (evicted *Transaction) {
	h.head = (h.head - 1 + HistoryCapacity) % HistoryCapacity
	if h.n == HistoryCapacity {
		evicted = h.buf[h.head]
	} else {
		h.n++
	}
	h.buf[h.head] = tx
	return evicted
}

func (h *History) Len() int { return h.n }

// At returns the i-th newest entry.
func (h *History) At(i int) *Transaction {
	if i < 0 || i >= h.n {
		return nil
	}
	return h.buf[(h.head+i)%HistoryCapacity]
}

// Newest returns the most recent entry or nil.
func (h *History) Newest() *Transaction { return h.At(0) }

// Oldest returns the least recent entry or nil.
func (h *History) Oldest() *Transaction { return h.At(h.n - 1) }

// Items copies the entries out, newest first.
func (h *History) Items() []*Transaction {
	out := make([]*Transaction, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}
