// Package cart はセッションに保存されるショッピングカートを扱う。
package cart

import (
	"encoding/gob"
	"sort"
	"strconv"
)

func init() {
	// gorilla/sessionsのgobエンコードでCart型を保存できるようにする
	gob.Register(Cart{})
}

// Cart は商品ID（10進文字列）から数量へのマップ。
// 数量は常に1以上で、0になったエントリは削除される。
type Cart map[string]int

// New は空のカートを返す。
func New() Cart {
	return Cart{}
}

// Increment は指定キーの数量を1増やす。
func (c Cart) Increment(key string) {
	c[key]++
}

// RemoveOne は指定キーの数量を1減らし、1だった場合はエントリを削除する。
// キーが存在しない場合は何もせずfalseを返す。
func (c Cart) RemoveOne(key string) bool {
	qty, ok := c[key]
	if !ok {
		return false
	}
	if qty > 1 {
		c[key] = qty - 1
	} else {
		delete(c, key)
	}
	return true
}

// Count はカート内の商品点数の合計を返す。
func (c Cart) Count() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// Clear はカートの全エントリをその場で削除する。
func (c Cart) Clear() {
	for key := range c {
		delete(c, key)
	}
}

// entry は数値として解釈できたカートエントリ。
type entry struct {
	id  int64
	qty int
}

// sortedEntries は商品ID昇順のエントリ一覧を返す。
// 数値でないキーと数量が1未満のエントリは除外する。
func (c Cart) sortedEntries() []entry {
	entries := make([]entry, 0, len(c))
	for key, qty := range c {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || qty < 1 {
			continue
		}
		entries = append(entries, entry{id: id, qty: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id < entries[j].id
	})
	return entries
}
