package models

import (
	"fmt"
	"strings"
)

// SpaceKind 空间层级类型
type SpaceKind string

const (
	SpaceBuilding SpaceKind = "building"
	SpaceFloor    SpaceKind = "floor"
	SpaceZone     SpaceKind = "zone"
	SpaceArea     SpaceKind = "area"
)

// Valid 是否为已知层级
func (k SpaceKind) Valid() bool {
	switch k {
	case SpaceBuilding, SpaceFloor, SpaceZone, SpaceArea:
		return true
	}
	return false
}

// SpaceNode 空间节点（楼宇/楼层/分区/区域）
type SpaceNode struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Kind     SpaceKind `json:"type" yaml:"type"`
	ParentID string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// 仅Area有效
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`

	// 仅Floor有效，楼层号
	Level int `json:"level,omitempty" yaml:"level,omitempty"`

	// 分区所属团队标签（如 marketing）
	Team string `json:"team,omitempty" yaml:"team,omitempty"`
}

// Hierarchy 只读的空间层级索引
type Hierarchy struct {
	nodes map[string]*SpaceNode
	order []string
}

// NewHierarchy 构建并校验空间层级：每条父链必须终止于唯一的Building且无环
func NewHierarchy(nodes []SpaceNode) (*Hierarchy, error) {
	h := &Hierarchy{nodes: make(map[string]*SpaceNode, len(nodes))}

	for i := range nodes {
		node := nodes[i]
		if node.ID == "" {
			return nil, fmt.Errorf("space node %d has empty id", i)
		}
		node.Kind = SpaceKind(strings.ToLower(string(node.Kind)))
		if !node.Kind.Valid() {
			return nil, fmt.Errorf("space %s has unknown type %q", node.ID, node.Kind)
		}
		if _, exists := h.nodes[node.ID]; exists {
			return nil, fmt.Errorf("duplicate space id %s", node.ID)
		}
		h.nodes[node.ID] = &node
		h.order = append(h.order, node.ID)
	}

	for _, id := range h.order {
		if err := h.validateChain(id); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func (h *Hierarchy) validateChain(id string) error {
	seen := map[string]struct{}{}
	current := h.nodes[id]
	for {
		if _, loop := seen[current.ID]; loop {
			return fmt.Errorf("space %s: parent chain has a cycle at %s", id, current.ID)
		}
		seen[current.ID] = struct{}{}

		if current.ParentID == "" {
			if current.Kind != SpaceBuilding {
				return fmt.Errorf("space %s: parent chain ends at %s (%s), not a building", id, current.ID, current.Kind)
			}
			return nil
		}
		if current.Kind == SpaceBuilding {
			return fmt.Errorf("space %s: building %s must not have a parent", id, current.ID)
		}

		parent, ok := h.nodes[current.ParentID]
		if !ok {
			return fmt.Errorf("space %s: unknown parent %s", id, current.ParentID)
		}
		current = parent
	}
}

// Node 按ID获取节点
func (h *Hierarchy) Node(id string) (SpaceNode, bool) {
	if h == nil {
		return SpaceNode{}, false
	}
	node, ok := h.nodes[id]
	if !ok {
		return SpaceNode{}, false
	}
	return *node, true
}

// Nodes 按加载顺序返回全部节点
func (h *Hierarchy) Nodes() []SpaceNode {
	if h == nil {
		return nil
	}
	out := make([]SpaceNode, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, *h.nodes[id])
	}
	return out
}

// Ancestor 沿父链向上查找指定类型的节点（包含自身）
func (h *Hierarchy) Ancestor(id string, kind SpaceKind) (SpaceNode, bool) {
	if h == nil {
		return SpaceNode{}, false
	}
	// 链已在构建时校验过无环
	for current, ok := h.nodes[id]; ok; current, ok = h.nodes[current.ParentID] {
		if current.Kind == kind {
			return *current, true
		}
		if current.ParentID == "" {
			break
		}
	}
	return SpaceNode{}, false
}

// FloorOf 返回区域所在楼层号
func (h *Hierarchy) FloorOf(areaID string) (int, bool) {
	floor, ok := h.Ancestor(areaID, SpaceFloor)
	if !ok {
		return 0, false
	}
	return floor.Level, true
}

// ZoneOf 返回区域所在分区ID
func (h *Hierarchy) ZoneOf(areaID string) (string, bool) {
	zone, ok := h.Ancestor(areaID, SpaceZone)
	if !ok {
		return "", false
	}
	return zone.ID, true
}

// Children 返回指定父节点下某类型的所有后代，保持加载顺序
func (h *Hierarchy) Children(parentID string, kind SpaceKind) []SpaceNode {
	if h == nil {
		return nil
	}
	var out []SpaceNode
	for _, id := range h.order {
		node := h.nodes[id]
		if node.Kind != kind || node.ID == parentID {
			continue
		}
		if _, ok := h.ancestorID(node.ID, parentID); ok {
			out = append(out, *node)
		}
	}
	return out
}

func (h *Hierarchy) ancestorID(id, target string) (string, bool) {
	for current, ok := h.nodes[id]; ok; current, ok = h.nodes[current.ParentID] {
		if current.ID == target {
			return current.ID, true
		}
		if current.ParentID == "" {
			break
		}
	}
	return "", false
}
