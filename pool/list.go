package pool

import "container/list"

// blockList wraps container/list with typed accessors. The free list relies
// on its ordering discipline: releases append at the back, so free times are
// monotonic from front to back and the purge scan can stop at the first
// block that is still young.
type blockList struct {
	l *list.List
}

func newBlockList() *blockList {
	return &blockList{l: list.New()}
}

func (bl *blockList) len() int {
	return bl.l.Len()
}

func (bl *blockList) pushBack(b *Block) *list.Element {
	return bl.l.PushBack(b)
}

func (bl *blockList) popBack() *Block {
	e := bl.l.Back()
	if e == nil {
		return nil
	}
	bl.l.Remove(e)
	return e.Value.(*Block)
}

func (bl *blockList) popFront() *Block {
	e := bl.l.Front()
	if e == nil {
		return nil
	}
	bl.l.Remove(e)
	return e.Value.(*Block)
}

func (bl *blockList) peekFront() *Block {
	e := bl.l.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Block)
}

func (bl *blockList) remove(e *list.Element) {
	bl.l.Remove(e)
}

// drain empties the list and returns its blocks front to back.
func (bl *blockList) drain() []*Block {
	out := make([]*Block, 0, bl.l.Len())
	for e := bl.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Block))
	}
	bl.l.Init()
	return out
}
