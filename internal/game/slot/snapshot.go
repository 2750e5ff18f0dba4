package slot

// ReelView 卷轴组只读视图
type ReelView struct {
	Positions [ReelCount]float64 `json:"positions"`
	Running   [ReelCount]bool    `json:"running"`
	StopIndex int                `json:"stop_index"`
	Snapping  bool               `json:"snapping"`
	Grid      Grid               `json:"grid"`
}

// BonusView 奖励模式视图
type BonusView struct {
	Phase              string    `json:"phase"`
	Trigger            string    `json:"trigger"`
	FreeSpinsRemaining int       `json:"free_spins_remaining"`
	TotalWon           int       `json:"total_won"`
	LastWin            int       `json:"last_win"`
	Multiplier         int       `json:"multiplier"`
	Reels              *ReelView `json:"reels,omitempty"`
}

// SpecialView 特殊事件视图
type SpecialView struct {
	Phase  string      `json:"phase"`
	Kind   SymbolID    `json:"kind"`
	Reward *RewardTier `json:"reward,omitempty"`
	Locked bool        `json:"locked"`
	Reels  *ReelView   `json:"reels,omitempty"`
}

// Snapshot 引擎状态的只读副本，供渲染和网络推送
type Snapshot struct {
	NowMs        int64          `json:"now_ms"`
	Mode         string         `json:"mode"`
	Coins        int            `json:"coins"`
	BonusEntries int            `json:"bonus_entries"`
	Bet          int            `json:"bet"`
	LastWin      int            `json:"last_win"`
	Streak       int            `json:"streak"`
	Phase        string         `json:"phase"`
	Reach        bool           `json:"reach"`
	Reels        ReelView       `json:"reels"`
	Bonus        BonusView      `json:"bonus"`
	Special      SpecialView    `json:"special"`
	SpecialArmed bool           `json:"special_armed"`
	Catalog      []CatalogEntry `json:"catalog"`
}

// Snapshot 生成当前状态快照
func (e *Engine) Snapshot() Snapshot {
	s := &e.state
	snap := Snapshot{
		NowMs:        s.Now.Milliseconds(),
		Mode:         s.Mode().String(),
		Coins:        s.Coins,
		BonusEntries: s.BonusEntries,
		Bet:          s.Bet,
		LastWin:      s.LastWin,
		Streak:       s.Combo.Streak,
		Phase:        s.Main.Phase.String(),
		Reach:        s.Main.Reach,
		Reels:        viewReels(s.Main.Reels),
		Bonus: BonusView{
			Phase:              s.Bonus.Phase.String(),
			Trigger:            s.Bonus.Trigger.String(),
			FreeSpinsRemaining: s.Bonus.FreeSpinsRemaining,
			TotalWon:           s.Bonus.TotalWon,
			LastWin:            s.Bonus.LastWin,
			Multiplier:         s.Bonus.Multiplier,
		},
		Special: SpecialView{
			Phase:  s.Special.Phase.String(),
			Kind:   s.Special.Kind,
			Locked: s.Special.Locked(s.Now),
		},
		SpecialArmed: s.SpecialArmed,
		Catalog:      s.Catalog.Entries(),
	}

	if s.Bonus.Reels != nil {
		v := viewReels(s.Bonus.Reels)
		snap.Bonus.Reels = &v
	}
	if s.Special.Phase != SpecialInactive {
		if s.Special.Reels != nil {
			v := viewReels(s.Special.Reels)
			snap.Special.Reels = &v
		}
		if s.Special.Phase >= SpecialResultFlash {
			r := s.Special.Reward
			snap.Special.Reward = &r
		}
	}
	return snap
}

func viewReels(b *ReelBank) ReelView {
	if b == nil {
		return ReelView{}
	}
	return ReelView{
		Positions: b.Positions,
		Running:   b.Running,
		StopIndex: b.StopIndex,
		Snapping:  b.Snap != nil,
		Grid:      b.Grid(),
	}
}
