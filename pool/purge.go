package pool

import "time"

// Purge frees every block that has sat idle longer than ttl, scanning the
// free list from its oldest end and stopping at the first block still within
// ttl. The append-at-tail discipline of Release makes free times monotonic
// along the list, so this prefix scan is sufficient. Purging never takes the
// pool below its minimum block count and never touches blocks in use.
func (p *Pool) Purge(ttl time.Duration) {
	now := time.Now()

	var victims []*Block
	p.mu.Lock()
	for p.count > p.min {
		b := p.available.peekFront()
		if b == nil || now.Sub(b.freedAt) < ttl {
			break
		}
		p.available.remove(b.elem)
		p.count--
		victims = append(victims, b)
	}
	p.mu.Unlock()

	if len(victims) > 0 {
		p.purged.Add(int64(len(victims)))
		p.freeAll(victims)
	}
}

// armPurgeLocked schedules the background purge tick. Called with p.mu held
// whenever the pool grows past its minimum; a no-op while already armed,
// closed, or when the interval is disabled.
func (p *Pool) armPurgeLocked() {
	if p.purgeArmed || p.closed || p.conf.purgeEvery <= 0 {
		return
	}
	p.purgeArmed = true
	if p.purgeTimer == nil {
		p.purgeTimer = time.AfterFunc(p.conf.purgeEvery, p.purgeTick)
	} else {
		p.purgeTimer.Reset(p.conf.purgeEvery)
	}
}

// purgeTick runs one background purge pass and reschedules itself while the
// pool still holds growth above its minimum, otherwise goes dormant until a
// future Acquire re-arms it.
func (p *Pool) purgeTick() {
	p.Purge(p.conf.idleTTL)

	p.mu.Lock()
	if !p.closed && p.count > p.min {
		p.purgeTimer.Reset(p.conf.purgeEvery)
	} else {
		p.purgeArmed = false
	}
	p.mu.Unlock()
}
