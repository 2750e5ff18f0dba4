package profile

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	// StateVersion 令牌格式版本，其他版本一律视为无效
	StateVersion = 3
	// DefaultCoins 新玩家初始金币
	DefaultCoins = 100
	// MaxCoins 金币上限
	MaxCoins = 9_999_999

	keyInfo = "deepsea-slots dss_state"
)

var (
	ErrInvalidToken = errors.New("invalid state token")
)

// State 玩家档案状态
type State struct {
	PlayerID     string    `json:"player_id"`
	Version      int       `json:"version"`
	Coins        int       `json:"coins"`
	BonusEntries int       `json:"bonusEntries"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// stateClaims 令牌载荷，数值字段用指针区分缺失
type stateClaims struct {
	Ver          *float64 `json:"ver"`
	Coins        *float64 `json:"coins"`
	BonusEntries *float64 `json:"bonus_entries"`
	UpdatedAt    *float64 `json:"updated_at"` // 毫秒
	jwt.RegisteredClaims
}

// Codec 档案令牌编解码，HS256签名
type Codec struct {
	key      []byte
	maxCoins int
	now      func() time.Time
}

// NewCodec 用HKDF从配置密钥派生签名密钥
func NewCodec(secret string, maxCoins int) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("profile secret 不能为空")
	}
	if maxCoins <= 0 {
		maxCoins = MaxCoins
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("派生签名密钥失败: %w", err)
	}
	return &Codec{key: key, maxCoins: maxCoins, now: time.Now}, nil
}

// Encode 签发令牌
func (c *Codec) Encode(s State) (string, error) {
	ver := float64(StateVersion)
	coins := float64(s.Coins)
	entries := float64(s.BonusEntries)
	updated := float64(s.UpdatedAt.UnixMilli())

	claims := &stateClaims{
		Ver:          &ver,
		Coins:        &coins,
		BonusEntries: &entries,
		UpdatedAt:    &updated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.PlayerID,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Decode 校验并解析令牌，返回夹紧后的状态
func (c *Codec) Decode(tokenString string) (State, error) {
	if tokenString == "" {
		return State{}, ErrInvalidToken
	}

	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return State{}, ErrInvalidToken
	}

	if !finite(claims.Ver) || int(math.Floor(*claims.Ver)) != StateVersion {
		return State{}, ErrInvalidToken
	}
	if !finite(claims.Coins) || !finite(claims.BonusEntries) {
		return State{}, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return State{}, ErrInvalidToken
	}

	updated := c.now()
	if finite(claims.UpdatedAt) {
		updated = time.UnixMilli(int64(math.Floor(*claims.UpdatedAt)))
	}

	return State{
		PlayerID:     claims.Subject,
		Version:      StateVersion,
		Coins:        clampCoins(*claims.Coins, c.maxCoins),
		BonusEntries: clampEntries(*claims.BonusEntries),
		UpdatedAt:    updated,
	}, nil
}

// DecodeOrDefault 解析失败时返回新玩家的默认状态
func (c *Codec) DecodeOrDefault(tokenString string, defaultCoins int) (State, bool) {
	s, err := c.Decode(tokenString)
	if err == nil {
		return s, true
	}
	return c.Default(defaultCoins), false
}

// Default 新玩家状态
func (c *Codec) Default(coins int) State {
	return State{
		PlayerID:  uuid.NewString(),
		Version:   StateVersion,
		Coins:     min(max(coins, 0), c.maxCoins),
		UpdatedAt: c.now(),
	}
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func clampCoins(v float64, maxCoins int) int {
	f := math.Floor(v)
	if f < 0 {
		return 0
	}
	if f > float64(maxCoins) {
		return maxCoins
	}
	return int(f)
}

func clampEntries(v float64) int {
	f := math.Floor(v)
	if f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
