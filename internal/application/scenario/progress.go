package scenario

import (
	"sync"
	"time"
)

// Progress 记录当前批次进度，供运维接口并发读取
type Progress struct {
	mu   sync.RWMutex
	snap ProgressSnapshot
}

// ProgressSnapshot 进度快照
type ProgressSnapshot struct {
	RunID        string    `json:"run_id"`
	Mode         string    `json:"mode"`
	Requested    int       `json:"requested"`
	Completed    int       `json:"completed"`
	Succeeded    int       `json:"succeeded"`
	Failed       []int     `json:"failed"`
	CurrentIndex int       `json:"current_index,omitempty"`
	Running      bool      `json:"running"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) start(runID, mode string, requested int, at time.Time) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = ProgressSnapshot{
		RunID:     runID,
		Mode:      mode,
		Requested: requested,
		Failed:    []int{},
		Running:   true,
		StartedAt: at,
	}
}

func (p *Progress) begin(index int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.snap.CurrentIndex = index
	p.mu.Unlock()
}

func (p *Progress) done(index int, ok bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Completed++
	if ok {
		p.snap.Succeeded++
	} else {
		p.snap.Failed = append(p.snap.Failed, index)
	}
}

func (p *Progress) finish(at time.Time) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.snap.Running = false
	p.snap.CurrentIndex = 0
	p.snap.FinishedAt = at
	p.mu.Unlock()
}

// Snapshot 返回进度副本
func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.snap
	out.Failed = append([]int(nil), p.snap.Failed...)
	return out
}
