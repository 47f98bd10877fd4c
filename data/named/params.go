// Package named 实现命名参数 SQL（:name）到位置参数 SQL（$1, $2 ...）的改写。
//
// Params 是按插入顺序保存的参数表（Bind Map）；Rewrite 按出现顺序为每个
// :name 分配占位符并生成参数列表。
package named

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Params 按插入顺序保存的 name -> value 映射
//
// 对已存在的 key 调用 Set 只更新值，不改变位置。
// nil *Params 可安全读取，视为空表。
type Params struct {
	keys   []string
	values map[string]any
}

// New 创建空参数表
func New() *Params {
	return &Params{values: make(map[string]any)}
}

// FromPairs 依次以 k1, v1, k2, v2 ... 构造参数表；key 必须为 string，个数必须成对
func FromPairs(kv ...any) *Params {
	if len(kv)%2 != 0 {
		panic("named: FromPairs requires an even number of arguments")
	}
	p := New()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("named: FromPairs key at %d is %T, not string", i, kv[i]))
		}
		p.Set(key, kv[i+1])
	}
	return p
}

// FromMap 由 map 构造参数表；map 无序，key 按字典序插入以保证结果确定
func FromMap(m map[string]any) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := New()
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// FromJSON 解析 JSON 对象，保留顶层 key 的出现顺序。
//
// 整数值解码为 int64，其余数字为 float64；嵌套对象/数组按 encoding/json 默认规则解码。
func FromJSON(data []byte) (*Params, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("named: decode params: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("named: params must be a JSON object")
	}

	p := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("named: decode params: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("named: unexpected token %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("named: decode value of %q: %w", key, err)
		}
		p.Set(key, normalizeJSON(raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("named: decode params: %w", err)
	}
	return p, nil
}

func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeJSON(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeJSON(item)
		}
		return out
	default:
		return v
	}
}

// Set 设置参数值，返回自身便于链式调用
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get 读取参数值
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has 是否存在 key
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete 删除 key；不存在时无操作
func (p *Params) Delete(key string) {
	if p == nil {
		return
	}
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys 返回按插入顺序排列的 key 副本
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len 参数个数
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone 浅拷贝参数表
func (p *Params) Clone() *Params {
	c := New()
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.Set(k, p.values[k])
	}
	return c
}

// Merge 将 other 的参数依次写入 p（同名覆盖），返回 p
func (p *Params) Merge(other *Params) *Params {
	if other == nil {
		return p
	}
	for _, k := range other.keys {
		p.Set(k, other.values[k])
	}
	return p
}

// Map 导出为普通 map（丢失顺序）
func (p *Params) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}
