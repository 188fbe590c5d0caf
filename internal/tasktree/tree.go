// Package tasktree assembles flat task rows into the project task hierarchy.
package tasktree

import "github.com/fonnet/fonnetapp/internal/model"

// Build converts a flat list of tasks into a forest. Input order is kept for
// siblings, so callers pass rows ordered by depth, order index and creation
// time. A task whose parent is missing from the input becomes a root.
func Build(tasks []model.Task) []*model.TaskNode {
	nodes := make(map[string]*model.TaskNode, len(tasks))
	for _, t := range tasks {
		nodes[t.ID] = &model.TaskNode{Task: t, Children: []*model.TaskNode{}}
	}

	roots := make([]*model.TaskNode, 0)
	for _, t := range tasks {
		node := nodes[t.ID]
		if t.HasParent() {
			if parent, ok := nodes[*t.ParentTaskID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				parent.ChildCount++
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn stops the descent below that node.
func Walk(roots []*model.TaskNode, fn func(node *model.TaskNode, parent *model.TaskNode) bool) {
	var visit func(node, parent *model.TaskNode)
	visit = func(node, parent *model.TaskNode) {
		if !fn(node, parent) {
			return
		}
		for _, child := range node.Children {
			visit(child, node)
		}
	}
	for _, root := range roots {
		visit(root, nil)
	}
}

// Count returns the number of nodes in the forest.
func Count(roots []*model.TaskNode) int {
	n := 0
	Walk(roots, func(*model.TaskNode, *model.TaskNode) bool {
		n++
		return true
	})
	return n
}
