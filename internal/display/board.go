package display

import (
	"sort"
	"sync"
)

// SlotState is the current content of one slot.
type SlotState struct {
	ID       SlotID `json:"id"`
	Text     string `json:"text"`
	Revealed bool   `json:"revealed"`
}

// Update is published on every slot change.
type Update struct {
	Seq  uint64    `json:"seq"`
	Slot SlotState `json:"slot"`
}

// Board is an in-memory Sink. Web clients render it and follow its updates.
type Board struct {
	mu      sync.RWMutex
	slots   map[SlotID]*SlotState
	order   []SlotID
	seq     uint64
	subs    map[uint64]func(Update)
	nextSub uint64
}

// StandardSlots is the full widget layout.
func StandardSlots() []SlotID {
	ids := append([]SlotID{}, MainSlots...)
	return append(ids, SlotSecondary, SlotTrigger, SlotExport, SlotCapture, SlotNextDrawing)
}

// NewBoard creates a board with the given slots. Lookups of other ids fail.
func NewBoard(ids ...SlotID) *Board {
	b := &Board{
		slots: make(map[SlotID]*SlotState, len(ids)),
		subs:  make(map[uint64]func(Update)),
	}
	for _, id := range ids {
		if _, ok := b.slots[id]; ok {
			continue
		}
		b.slots[id] = &SlotState{ID: id}
		b.order = append(b.order, id)
	}
	for _, id := range append([]SlotID{SlotSecondary}, MainSlots...) {
		if s, ok := b.slots[id]; ok {
			s.Text = Placeholder
		}
	}
	return b
}

func (b *Board) Lookup(id SlotID) (Slot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.slots[id]; !ok {
		return nil, false
	}
	slot := boardSlot{board: b, id: id}
	if id == SlotCapture {
		return boardCapture{slot}, true
	}
	return slot, true
}

// Snapshot returns all slots in creation order.
func (b *Board) Snapshot() []SlotState {
	_, res := b.SnapshotSeq()
	return res
}

// SnapshotSeq returns all slots together with the sequence number of the
// last update they include.
func (b *Board) SnapshotSeq() (uint64, []SlotState) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]SlotState, 0, len(b.order))
	for _, id := range b.order {
		res = append(res, *b.slots[id])
	}
	return b.seq, res
}

// Get returns a single slot state.
func (b *Board) Get(id SlotID) (SlotState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.slots[id]
	if !ok {
		return SlotState{}, false
	}
	return *s, true
}

// Seq is the sequence number of the last published update.
func (b *Board) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Subscribe registers fn for all future updates. fn is called outside the
// board lock, from whatever goroutine changed the slot.
func (b *Board) Subscribe(fn func(Update)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSub++
	id := b.nextSub
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *Board) update(id SlotID, fn func(s *SlotState)) {
	b.mu.Lock()
	s := b.slots[id]
	prev := *s
	fn(s)
	if *s == prev {
		b.mu.Unlock()
		return
	}
	b.seq++
	upd := Update{Seq: b.seq, Slot: *s}

	keys := make([]uint64, 0, len(b.subs))
	for k := range b.subs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	subs := make([]func(Update), 0, len(keys))
	for _, k := range keys {
		subs = append(subs, b.subs[k])
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub(upd)
	}
}

type boardSlot struct {
	board *Board
	id    SlotID
}

func (s boardSlot) SetText(text string) {
	s.board.update(s.id, func(st *SlotState) { st.Text = text })
}

func (s boardSlot) SetRevealed(revealed bool) {
	s.board.update(s.id, func(st *SlotState) { st.Revealed = revealed })
}

type boardCapture struct {
	boardSlot
}

// Cells returns the label slots present on the board, in reveal order.
func (c boardCapture) Cells() []Cell {
	b := c.board
	b.mu.RLock()
	defer b.mu.RUnlock()

	var cells []Cell
	for _, id := range append(append([]SlotID{}, MainSlots...), SlotSecondary) {
		s, ok := b.slots[id]
		if !ok {
			continue
		}
		cells = append(cells, Cell{
			Text:      s.Text,
			Revealed:  s.Revealed,
			Secondary: id == SlotSecondary,
		})
	}
	return cells
}
