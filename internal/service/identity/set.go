package identity

import "sort"

// Set 规范化 ID 的集合，保持插入顺序
type Set struct {
	index map[string]struct{}
	order []string
}

// NewSet 以若干引用初始化集合，无法解析的引用被丢弃
func NewSet(refs ...any) *Set {
	s := &Set{index: make(map[string]struct{})}
	for _, r := range refs {
		s.Add(r)
	}
	return s
}

// Add 加入一个引用，返回是否为新成员
func (s *Set) Add(ref any) bool {
	id := Normalize(ref)
	if id == Unresolved {
		return false
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Remove 删除一个引用
func (s *Set) Remove(ref any) {
	id := Normalize(ref)
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Has 判断是否包含
func (s *Set) Has(ref any) bool {
	_, ok := s.index[Normalize(ref)]
	return ok
}

func (s *Set) Len() int { return len(s.order) }

// Slice 插入顺序的快照
func (s *Set) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted 字典序快照
func (s *Set) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}
