package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/deepsea-slots/internal/game/slot"
)

// Message WebSocket消息
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// 客户端指令
const (
	CommandSpin           = "spin"
	CommandStop           = "stop"
	CommandAction         = "action"
	CommandBet            = "bet"
	CommandKey            = "key"
	CommandEndBonus       = "end_bonus"
	CommandConfirmSpecial = "confirm_special"
	CommandPurchase       = "purchase"
	CommandRestart        = "restart"
)

// 服务端消息
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypeNotice   = "notice"
	MessageTypeProfile  = "profile"
	MessageTypeError    = "error"
	MessageTypeShutdown = "shutdown"
)

type betData struct {
	Bet *int `json:"bet"`
}

type keyData struct {
	Key string `json:"key"`
}

type purchaseData struct {
	ID *int `json:"id"`
}

// ParseCommand 把客户端消息转换为引擎事件
func ParseCommand(raw []byte) (slot.Event, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch msg.Type {
	case CommandSpin:
		return slot.SpinRequested{}, nil
	case CommandStop:
		return slot.StopRequested{}, nil
	case CommandAction:
		return slot.ActionPressed{}, nil
	case CommandEndBonus:
		return slot.BonusEnded{}, nil
	case CommandConfirmSpecial:
		return slot.SpecialConfirmed{}, nil
	case CommandRestart:
		return slot.Restarted{}, nil

	case CommandBet:
		var d betData
		if err := decodeData(msg.Data, &d); err != nil || d.Bet == nil {
			return nil, fmt.Errorf("%w: bet 需要 {bet}", ErrInvalidMessage)
		}
		return slot.BetChanged{Bet: *d.Bet}, nil

	case CommandKey:
		var d keyData
		if err := decodeData(msg.Data, &d); err != nil || d.Key == "" {
			return nil, fmt.Errorf("%w: key 需要 {key}", ErrInvalidMessage)
		}
		return slot.KeyPressed{Key: d.Key}, nil

	case CommandPurchase:
		var d purchaseData
		if err := decodeData(msg.Data, &d); err != nil || d.ID == nil {
			return nil, fmt.Errorf("%w: purchase 需要 {id}", ErrInvalidMessage)
		}
		return slot.UpgradePurchased{ID: *d.ID}, nil

	case "":
		return nil, fmt.Errorf("%w: 消息类型不能为空", ErrInvalidMessage)
	default:
		return nil, fmt.Errorf("%w: 不支持的消息类型 %s", ErrInvalidMessage, msg.Type)
	}
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return ErrInvalidMessage
	}
	return json.Unmarshal(raw, v)
}
