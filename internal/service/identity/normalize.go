// Package identity 将各种形态的用户引用统一为规范化的字符串 ID
// 所有 "是否同一个用户" 的比较都必须先经过 Normalize，两侧都要
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Unresolved 无法解析时返回的哨兵值
const Unresolved = ""

// IDer 暴露自身 ID 的已填充对象
type IDer interface {
	GetID() string
}

// 未解析引用被直接字符串化后会得到这些字面量，不能当成合法 ID
var unresolvedLiterals = map[string]struct{}{
	"[object Object]": {},
	"<nil>":           {},
	"map[]":           {},
	"{}":              {},
	"null":            {},
	"undefined":       {},
}

// Normalize 把用户引用转换成规范化 ID
// 支持 string、*string、[]byte、整数、IDer、带 _id/id/user 的 map 以及 fmt.Stringer
// 输入为 nil 或无法解析时返回 Unresolved，从不 panic
func Normalize(ref any) string {
	var raw string
	switch v := ref.(type) {
	case nil:
		return Unresolved
	case string:
		raw = v
	case *string:
		if v == nil {
			return Unresolved
		}
		raw = *v
	case []byte:
		raw = string(v)
	case int:
		raw = strconv.Itoa(v)
	case int64:
		raw = strconv.FormatInt(v, 10)
	case uint:
		raw = strconv.FormatUint(uint64(v), 10)
	case uint64:
		raw = strconv.FormatUint(v, 10)
	case IDer:
		if isNilIDer(v) {
			return Unresolved
		}
		raw = v.GetID()
	case map[string]any:
		return fromMap(v)
	case map[string]string:
		if id, ok := v["_id"]; ok {
			return clean(id)
		}
		return clean(v["id"])
	case fmt.Stringer:
		raw = v.String()
	default:
		return Unresolved
	}
	return clean(raw)
}

// fromMap 处理 JSON 解码后的已填充引用，如 {"_id": "...", "name": "..."}
// 嵌套引用 {"_id": {"$oid": "..."}} 与工作区成员项 {"user": ..., "role": ...} 会递归解析
func fromMap(m map[string]any) string {
	for _, key := range []string{"_id", "id", "$oid", "user"} {
		if v, ok := m[key]; ok {
			return Normalize(v)
		}
	}
	return Unresolved
}

func clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Unresolved
	}
	if _, bad := unresolvedLiterals[s]; bad {
		return Unresolved
	}
	return s
}

// isNilIDer 防止带类型的 nil 指针调用 GetID 时 panic
func isNilIDer(v IDer) (isNil bool) {
	defer func() {
		if recover() != nil {
			isNil = true
		}
	}()
	_ = v.GetID()
	return false
}

// Equal 两侧都规范化后再比较；任一侧无法解析都视为不相等
func Equal(a, b any) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == Unresolved || nb == Unresolved {
		return false
	}
	return na == nb
}
