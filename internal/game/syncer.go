package game

import (
	"context"
	"time"

	"github.com/wfunc/deepsea-slots/internal/profile"
)

// ProfileCommitter 服务端权威的档案写入
type ProfileCommitter interface {
	Commit(ctx context.Context, st profile.State) (profile.State, string, error)
}

// syncResult 一次提交的结果
type syncResult struct {
	state profile.State
	token string
	err   error
}

// profileSyncer 节流的档案同步，只在会话协程内使用
// 提交在独立协程执行，结果经 done 回到会话协程
type profileSyncer struct {
	committer ProfileCommitter
	interval  time.Duration
	timeout   time.Duration

	synced   profile.State // 最近一次成功写入
	want     profile.State // 引擎当前余额
	lastTry  time.Time
	inflight bool
	failures int
	done     chan syncResult
}

func newProfileSyncer(committer ProfileCommitter, initial profile.State, interval time.Duration) *profileSyncer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &profileSyncer{
		committer: committer,
		interval:  interval,
		timeout:   5 * time.Second,
		synced:    initial,
		want:      initial,
		done:      make(chan syncResult, 1),
	}
}

// observe 记录引擎当前余额
func (p *profileSyncer) observe(coins, bonusEntries int) {
	p.want.Coins = coins
	p.want.BonusEntries = bonusEntries
}

// dirty 是否有未写入的变化
func (p *profileSyncer) dirty() bool {
	return p.want.Coins != p.synced.Coins || p.want.BonusEntries != p.synced.BonusEntries
}

// maybeFlush 到期且有变化时发起提交，force 忽略节流
func (p *profileSyncer) maybeFlush(now time.Time, force bool) bool {
	if p.inflight || !p.dirty() {
		return false
	}
	if !force && !p.lastTry.IsZero() && now.Sub(p.lastTry) < p.interval {
		return false
	}

	p.inflight = true
	p.lastTry = now
	st := p.want
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		next, token, err := p.committer.Commit(ctx, st)
		p.done <- syncResult{state: next, token: token, err: err}
	}()
	return true
}

// complete 处理提交结果；失败时保留脏标记，下个间隔再试
func (p *profileSyncer) complete(res syncResult) {
	p.inflight = false
	if res.err != nil {
		p.failures++
		return
	}
	p.failures = 0
	p.synced = res.state
}

// flushSync 会话结束时同步提交
func (p *profileSyncer) flushSync(ctx context.Context) (syncResult, bool) {
	if p.inflight {
		p.complete(<-p.done)
	}
	if !p.dirty() {
		return syncResult{}, false
	}
	next, token, err := p.committer.Commit(ctx, p.want)
	res := syncResult{state: next, token: token, err: err}
	p.complete(res)
	return res, true
}
