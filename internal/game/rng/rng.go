package rng

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

// RandomGenerator 随机数生成器接口
type RandomGenerator interface {
	// Next 生成 [0,1) 的随机数
	Next() float64

	// NextInt 生成 [min,max) 范围内的随机整数
	NextInt(min, max int) int

	// Seed 设置种子
	Seed(seed int64)
}

// Uniform 在 [min,max) 内均匀取值
func Uniform(g RandomGenerator, min, max float64) float64 {
	return min + g.Next()*(max-min)
}

// Chance 以概率 p 返回 true
func Chance(g RandomGenerator, p float64) bool {
	return g.Next() < p
}

// SeededRandomGenerator 可复现的伪随机数生成器
type SeededRandomGenerator struct {
	mu  sync.Mutex
	src *mrand.Rand
}

// NewSeededRandomGenerator 创建伪随机数生成器，seed 为 0 时使用当前时间
func NewSeededRandomGenerator(seed int64) *SeededRandomGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededRandomGenerator{src: mrand.New(mrand.NewSource(seed))}
}

// Next 生成下一个随机数 (0-1)
func (g *SeededRandomGenerator) Next() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Float64()
}

// NextInt 生成指定范围内的随机整数
func (g *SeededRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + g.src.Intn(max-min)
}

// Seed 重置种子
func (g *SeededRandomGenerator) Seed(seed int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.src = mrand.New(mrand.NewSource(seed))
}

// CryptoRandomGenerator 加密安全的随机数生成器
type CryptoRandomGenerator struct{}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{}
}

// Next 生成下一个随机数 (0-1)
func (g *CryptoRandomGenerator) Next() float64 {
	max := big.NewInt(1000000)
	n, _ := rand.Int(rand.Reader, max)
	return float64(n.Int64()) / 1000000.0
}

// NextInt 生成指定范围内的随机整数
func (g *CryptoRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	diff := big.NewInt(int64(max - min))
	n, _ := rand.Int(rand.Reader, diff)
	return min + int(n.Int64())
}

// Seed 设置种子（加密随机数不需要种子）
func (g *CryptoRandomGenerator) Seed(seed int64) {}

// ScriptedRandomGenerator 按预设序列返回值的生成器，用于确定性测试。
// 序列用尽后 Next 返回 Fallback。
type ScriptedRandomGenerator struct {
	mu       sync.Mutex
	values   []float64
	pos      int
	Fallback float64
}

// NewScriptedRandomGenerator 创建预设序列生成器
func NewScriptedRandomGenerator(values ...float64) *ScriptedRandomGenerator {
	return &ScriptedRandomGenerator{values: values, Fallback: 0.999}
}

// Push 追加预设值
func (g *ScriptedRandomGenerator) Push(values ...float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = append(g.values, values...)
}

// Next 返回下一个预设值
func (g *ScriptedRandomGenerator) Next() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pos >= len(g.values) {
		return g.Fallback
	}
	v := g.values[g.pos]
	g.pos++
	return v
}

// NextInt 用下一个预设值映射到 [min,max)
func (g *ScriptedRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	n := min + int(g.Next()*float64(max-min))
	if n >= max {
		n = max - 1
	}
	return n
}

// Seed 重置读取位置
func (g *ScriptedRandomGenerator) Seed(seed int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pos = 0
}

// Remaining 剩余未消费的预设值数量
func (g *ScriptedRandomGenerator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.values) - g.pos
}
