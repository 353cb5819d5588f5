package diameter

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/diameter"
)

// transaction pairs a request with its answer.
type transaction struct {
	requestFrame uint64
	answerFrame  uint64
}

// tracker matches answers to requests by command code, hop-by-hop and
// end-to-end identifier. Entries expire after ttl.
type tracker struct {
	txs *cache.Cache // key → *transaction
}

func newTracker(ttl time.Duration) *tracker {
	return &tracker{txs: cache.New(ttl, 2*ttl)}
}

func txKey(h diameter.Header) string {
	return fmt.Sprintf("%d/%08x/%08x", h.CommandCode, h.HopByHop, h.EndToEnd)
}

// observe records h seen in frame and returns its transaction. Revisited
// frames only read. A retransmitted request keeps the first request frame.
func (t *tracker) observe(frame core.Frame, h diameter.Header) (transaction, bool) {
	key := txKey(h)
	var tx *transaction
	if v, found := t.txs.Get(key); found {
		tx = v.(*transaction)
	}
	if frame.Visited {
		if tx == nil {
			return transaction{}, false
		}
		return *tx, true
	}

	if h.Flags&diameter.MsgFlagRequest != 0 {
		if tx == nil {
			tx = &transaction{requestFrame: frame.Number}
			t.txs.SetDefault(key, tx)
		}
		return *tx, true
	}
	if tx == nil {
		return transaction{}, false
	}
	if tx.answerFrame == 0 {
		tx.answerFrame = frame.Number
	}
	return *tx, true
}

func (t *tracker) flush() {
	t.txs.Flush()
}

// annotate links res to the other half of its transaction.
func annotate(res *core.Result, h diameter.Header, tx transaction, self uint64) {
	if h.Flags&diameter.MsgFlagRequest != 0 {
		if tx.answerFrame != 0 && tx.answerFrame != self {
			res.Tree.Add(core.NewNode("Answer In", core.KindUint, tx.answerFrame, 0, 0))
			res.Labels[core.LabelDiameterAnsIn] = fmt.Sprint(tx.answerFrame)
		}
		return
	}
	if tx.requestFrame != 0 {
		res.Tree.Add(core.NewNode("Request In", core.KindUint, tx.requestFrame, 0, 0))
		res.Labels[core.LabelDiameterReqIn] = fmt.Sprint(tx.requestFrame)
	}
}
