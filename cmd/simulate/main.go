package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/wfunc/deepsea-slots/internal/config"
	"github.com/wfunc/deepsea-slots/internal/game"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Report 模拟报告
type Report struct {
	Total         *slot.SimStats `json:"total"`
	Batches       int            `json:"batches"`
	RTP           float64        `json:"rtp"`
	RTPMean       float64        `json:"rtp_mean"`
	RTPStdDev     float64        `json:"rtp_stddev"`
	HitRate       float64        `json:"hit_rate"`
	HitRateLow    float64        `json:"hit_rate_low"`
	HitRateHigh   float64        `json:"hit_rate_high"`
	Confidence    float64        `json:"confidence"`
	SpinsPerSec   float64        `json:"spins_per_sec"`
	ElapsedMillis int64          `json:"elapsed_ms"`
}

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径")
		spins      = flag.Int("spins", 1_000_000, "主旋转总次数")
		bet        = flag.Int("bet", slot.MaxBet, "每次下注(1-3)")
		seed       = flag.Uint64("seed", 1, "随机种子，各批次依次递增")
		batches    = flag.Int("batches", 8, "并行批次数")
		confidence = flag.Float64("confidence", 0.95, "命中率置信水平")
		asJSON     = flag.Bool("json", false, "以JSON输出报告")
		quiet      = flag.Bool("quiet", false, "不显示进度条")
	)
	flag.Parse()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	engineCfg, err := game.EngineConfig(&appCfg.Game)
	if err != nil {
		fmt.Fprintf(os.Stderr, "引擎配置无效: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var progress io.Writer = os.Stderr
	if *quiet {
		progress = io.Discard
	}
	report, err := run(ctx, engineCfg, *spins, *bet, *seed, *batches, *confidence, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}
	printReport(os.Stdout, report)
}

// splitSpins 把总次数尽量平均分到各批次
func splitSpins(total, batches int) []int {
	if batches <= 0 {
		batches = 1
	}
	if batches > total {
		batches = total
	}
	sizes := make([]int, batches)
	for i := range sizes {
		sizes[i] = total / batches
		if i < total%batches {
			sizes[i]++
		}
	}
	return sizes
}

// run 并行跑各批次并汇总
func run(ctx context.Context, cfg *slot.Config, spins, bet int, seed uint64, batches int, confidence float64, progress io.Writer) (*Report, error) {
	if spins <= 0 {
		return nil, fmt.Errorf("%w: 模拟次数必须为正", slot.ErrInvalidConfig)
	}
	sizes := splitSpins(spins, batches)
	results := make([]*slot.SimStats, len(sizes))

	bar := pb.New(spins)
	bar.SetWriter(progress)
	bar.Set("prefix", "spins ")
	bar.Start()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range sizes {
		i, n := i, n
		g.Go(func() error {
			last := 0
			opts := slot.SimOptions{Spins: n, Bet: bet, Seed: seed + uint64(i), ProgressEvery: 1000}
			st, err := slot.Simulate(gctx, cfg, opts, func(done int, _ *slot.SimStats) {
				bar.Add(done - last)
				last = done
			})
			if err != nil {
				return err
			}
			bar.Add(n - last)
			mu.Lock()
			results[i] = st
			mu.Unlock()
			return nil
		})
	}
	start := time.Now()
	err := g.Wait()
	bar.Finish()
	if err != nil {
		return nil, err
	}
	return summarize(results, confidence, time.Since(start)), nil
}

// summarize 合并批次结果，返还率均值和标准差按批次样本计算
func summarize(results []*slot.SimStats, confidence float64, elapsed time.Duration) *Report {
	total := mergeStats(results)
	rtps := make([]float64, 0, len(results))
	for _, r := range results {
		rtps = append(rtps, r.RTP())
	}

	report := &Report{
		Total:         total,
		Batches:       len(results),
		RTP:           total.RTP(),
		HitRate:       total.HitRate(),
		Confidence:    confidence,
		ElapsedMillis: elapsed.Milliseconds(),
	}
	if len(rtps) > 1 {
		report.RTPMean, report.RTPStdDev = stat.MeanStdDev(rtps, nil)
	} else if len(rtps) == 1 {
		report.RTPMean = rtps[0]
	}
	report.HitRateLow, report.HitRateHigh = total.HitRateInterval(confidence)
	if elapsed > 0 {
		report.SpinsPerSec = float64(total.Spins) / elapsed.Seconds()
	}
	return report
}

func mergeStats(results []*slot.SimStats) *slot.SimStats {
	total := &slot.SimStats{}
	for _, r := range results {
		if r == nil {
			continue
		}
		total.Spins += r.Spins
		total.Wagered += r.Wagered
		total.Returned += r.Returned
		total.MainReturned += r.MainReturned
		total.BonusReturned += r.BonusReturned
		total.SpecialPaid += r.SpecialPaid
		total.Hits += r.Hits
		total.BonusTriggers += r.BonusTriggers
		total.EnhancedBonus += r.EnhancedBonus
		total.Specials += r.Specials
		total.Jackpots += r.Jackpots
		if r.MaxWin > total.MaxWin {
			total.MaxWin = r.MaxWin
		}
		if r.LongestStreak > total.LongestStreak {
			total.LongestStreak = r.LongestStreak
		}
		if r.Elapsed > total.Elapsed {
			total.Elapsed = r.Elapsed
		}
	}
	return total
}

func printReport(w io.Writer, r *Report) {
	t := r.Total
	fmt.Fprintf(w, "旋转次数:     %s (%d 批)\n", humanize.Comma(int64(t.Spins)), r.Batches)
	fmt.Fprintf(w, "总下注:       %s\n", humanize.Comma(t.Wagered))
	fmt.Fprintf(w, "总返还:       %s (主 %s / 奖励 %s / 特殊 %s)\n",
		humanize.Comma(t.Returned), humanize.Comma(t.MainReturned),
		humanize.Comma(t.BonusReturned), humanize.Comma(t.SpecialPaid))
	fmt.Fprintf(w, "RTP:          %.4f%% (批次均值 %.4f%% ± %.4f%%)\n", r.RTP*100, r.RTPMean*100, r.RTPStdDev*100)
	fmt.Fprintf(w, "命中率:       %.4f%% [%.4f%%, %.4f%%] @%.0f%%\n",
		r.HitRate*100, r.HitRateLow*100, r.HitRateHigh*100, r.Confidence*100)
	fmt.Fprintf(w, "奖励触发:     %s (多线 %s)\n", humanize.Comma(int64(t.BonusTriggers)), humanize.Comma(int64(t.EnhancedBonus)))
	fmt.Fprintf(w, "特殊事件:     %s\n", humanize.Comma(int64(t.Specials)))
	fmt.Fprintf(w, "头奖:         %s\n", humanize.Comma(int64(t.Jackpots)))
	fmt.Fprintf(w, "最大单次赢分: %s  最长连胜: %d\n", humanize.Comma(int64(t.MaxWin)), t.LongestStreak)
	fmt.Fprintf(w, "耗时:         %s (%s 次/秒)\n",
		time.Duration(r.ElapsedMillis)*time.Millisecond, humanize.Commaf(float64(int64(r.SpinsPerSec))))
}
