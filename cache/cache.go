// Package cache 按描述符记忆计算结果的 LRU 缓存
package cache

import (
	"fmt"
	"sync"

	"github.com/weaming/idt-go/logx"
)

// DefaultCapacity 默认容量
const DefaultCapacity = 10

// Cache 以描述符 D 为键缓存 (成功标志, 结果 V)
// 失败的计算同样被缓存，直到被淘汰或清空
// 查找为线性扫描，容量应保持较小
type Cache[D, V any] struct {
	Name      string
	Capacity  int
	Verbosity int
	Disabled  bool
	Logger    *logx.Logger

	equal  func(a, b D) bool
	format func(d D) string

	mu          sync.Mutex
	size        int
	first, last *entry[D, V]
}

type entry[D, V any] struct {
	prev, next *entry[D, V]
	key        D
	ok         bool
	value      V
}

// New 用 == 比较描述符
func New[D comparable, V any](name string) *Cache[D, V] {
	return NewFunc[D, V](name, func(a, b D) bool { return a == b }, nil)
}

// NewFunc 自定义相等比较与诊断格式，format 为 nil 时使用 fmt.Sprint
func NewFunc[D, V any](name string, equal func(a, b D) bool, format func(D) string) *Cache[D, V] {
	if format == nil {
		format = func(d D) string { return fmt.Sprint(d) }
	}
	return &Cache[D, V]{
		Name:     name,
		Capacity: DefaultCapacity,
		equal:    equal,
		format:   format,
	}
}

// Configure 在锁内更新运行参数
func (c *Cache[D, V]) Configure(verbosity int, disabled bool, logger *logx.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Verbosity = verbosity
	c.Disabled = disabled
	c.Logger = logger
}

// Resize 修改容量并淘汰多出的旧条目
func (c *Cache[D, V]) Resize(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Capacity = capacity
	for c.size > 0 && c.size > c.Capacity {
		c.removeLast()
	}
}

func (c *Cache[D, V]) logf(format string, args ...any) {
	if c.Verbosity <= 0 {
		return
	}
	l := c.Logger
	if l == nil {
		l = logx.Default(c.Verbosity)
	}
	l.Infof("Cache (%s): "+format, append([]any{c.Name}, args...)...)
}

// Fetch 查找描述符对应的结果，未命中时调用 compute 填充并记录其返回的成功标志
func (c *Cache[D, V]) Fetch(d D, compute func(v *V) bool) (bool, V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Disabled {
		c.logf("disabled.")
		c.clear()

		var v V
		ok := compute(&v)
		return ok, v
	}

	c.logf("searching for an entry [%s].", c.format(d))

	for ent := c.first; ent != nil; ent = ent.next {
		if c.equal(ent.key, d) {
			c.moveToFront(ent)
			c.logf("found in cache!")
			return ent.ok, ent.value
		}
	}

	// 容量小于 1 时按 1 处理
	for c.size > 0 && c.size >= max(c.Capacity, 1) {
		c.removeLast()
	}

	c.logf("not found. Calculating a new entry.")

	ent := &entry[D, V]{key: d}
	c.moveToFront(ent)
	c.size++
	ent.ok = compute(&ent.value)
	return ent.ok, ent.value
}

// Len 当前条目数
func (c *Cache[D, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Keys 按最近使用顺序返回所有描述符
func (c *Cache[D, V]) Keys() []D {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]D, 0, c.size)
	for ent := c.first; ent != nil; ent = ent.next {
		keys = append(keys, ent.key)
	}
	return keys
}

// Clear 清空缓存
func (c *Cache[D, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

func (c *Cache[D, V]) clear() {
	c.first, c.last = nil, nil
	c.size = 0
}

func (c *Cache[D, V]) moveToFront(ent *entry[D, V]) {
	if ent == c.first {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == c.last {
		c.last = ent.prev
	}

	ent.prev = nil
	ent.next = c.first
	if c.first != nil {
		c.first.prev = ent
	}
	c.first = ent
	if c.last == nil {
		c.last = ent
	}
}

func (c *Cache[D, V]) removeLast() {
	if c.last == nil {
		return
	}

	if c.last.prev != nil {
		c.last.prev.next = nil
	} else {
		c.first = nil
	}
	c.last = c.last.prev
	c.size--
}
