package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want slot.Event
	}{
		{"spin", `{"type":"spin"}`, slot.SpinRequested{}},
		{"stop", `{"type":"stop"}`, slot.StopRequested{}},
		{"action", `{"type":"action"}`, slot.ActionPressed{}},
		{"end_bonus", `{"type":"end_bonus"}`, slot.BonusEnded{}},
		{"confirm_special", `{"type":"confirm_special"}`, slot.SpecialConfirmed{}},
		{"restart", `{"type":"restart"}`, slot.Restarted{}},
		{"bet", `{"type":"bet","data":{"bet":2}}`, slot.BetChanged{Bet: 2}},
		{"key", `{"type":"key","data":{"key":"ArrowUp"}}`, slot.KeyPressed{Key: "ArrowUp"}},
		{"purchase", `{"type":"purchase","data":{"id":0}}`, slot.UpgradePurchased{ID: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseCommand([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"非JSON", `spin`},
		{"空类型", `{"data":{}}`},
		{"未知类型", `{"type":"teleport"}`},
		{"bet缺数据", `{"type":"bet"}`},
		{"bet缺字段", `{"type":"bet","data":{}}`},
		{"bet类型错误", `{"type":"bet","data":{"bet":"two"}}`},
		{"key为空", `{"type":"key","data":{"key":""}}`},
		{"purchase缺id", `{"type":"purchase","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand([]byte(tt.raw))
			assert.True(t, errors.Is(err, ErrInvalidMessage), "err = %v", err)
		})
	}
}
