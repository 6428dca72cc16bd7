package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nmxmxh/atomics/atomics"
	"github.com/nmxmxh/atomics/internal/buffer"
	"github.com/nmxmxh/atomics/internal/config"
	"github.com/nmxmxh/atomics/internal/utils"
)

type selfTestResult struct {
	Width      int    `json:"width"`
	Workers    int    `json:"workers"`
	Iterations int    `json:"iterations"`
	Want       string `json:"want"`
	Got        string `json:"got"`
	OK         bool   `json:"ok"`
	Elapsed    string `json:"elapsed"`

	elapsed time.Duration
}

// runSelfTest has every worker open its own view over one slot of a shared
// region and fetch-add 1 into it. The slot must end up holding
// workers*iterations, truncated to the width.
func runSelfTest(ctx context.Context, env *atomics.Env, cfg config.SelfTestConfig, cleanup *utils.ReleaseGroup) (*selfTestResult, error) {
	region, err := buffer.OpenSharedRegion(buffer.SharedRegionOptions{
		Path:   cfg.Path,
		Size:   4096,
		Create: cfg.Path != "",
	})
	if err != nil {
		return nil, err
	}
	cleanup.Register("shared region", region.Close)

	slot, err := region.Slice(0, cfg.Width)
	if err != nil {
		return nil, err
	}
	clear(slot)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			return env.WithUintView(slot, atomics.ReadWrite, func(v *atomics.UintView) error {
				one := big.NewInt(1)
				for i := 0; i < cfg.Iterations; i++ {
					if i%1024 == 0 && ctx.Err() != nil {
						return ctx.Err()
					}
					if _, err := v.FetchAdd(one, atomics.SeqCst); err != nil {
						return fmt.Errorf("worker %d: %w", w, err)
					}
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	want := new(big.Int).Mul(big.NewInt(int64(cfg.Workers)), big.NewInt(int64(cfg.Iterations)))
	want.Mod(want, new(big.Int).Lsh(big.NewInt(1), uint(cfg.Width)*8))

	var got *big.Int
	err = env.WithUintView(slot, atomics.ReadOnly, func(v *atomics.UintView) error {
		var loadErr error
		got, loadErr = v.Load(atomics.Acquire)
		return loadErr
	})
	if err != nil {
		return nil, err
	}

	return &selfTestResult{
		Width:      cfg.Width,
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Want:       want.String(),
		Got:        got.String(),
		OK:         want.Cmp(got) == 0,
		Elapsed:    elapsed.String(),
		elapsed:    elapsed,
	}, nil
}
