package tasktree

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"

	"github.com/fonnet/fonnetapp/internal/model"
)

func task(id, parent string, depth, order int) model.Task {
	t := model.Task{ID: id, ProjectID: "p", DepthLevel: depth, OrderIndex: order, Title: id}
	if parent != "" {
		p := parent
		t.ParentTaskID = &p
	}
	return t
}

// parentage maps every child id to its parent id ("" for roots).
func parentage(roots []*model.TaskNode) map[string]string {
	out := map[string]string{}
	Walk(roots, func(node, parent *model.TaskNode) bool {
		if parent == nil {
			out[node.ID] = ""
		} else {
			out[node.ID] = parent.ID
		}
		return true
	})
	return out
}

// ids lists node ids depth-first, used to compare sibling order.
func ids(roots []*model.TaskNode) []string {
	var out []string
	Walk(roots, func(node, _ *model.TaskNode) bool {
		out = append(out, node.ID)
		return true
	})
	return out
}

func TestBuild(t *testing.T) {
	is := is.New(t)

	roots := Build([]model.Task{
		task("a", "", 0, 0),
		task("d", "", 0, 1),
		task("b", "a", 1, 0),
		task("e", "a", 1, 1),
		task("c", "b", 2, 0),
	})

	is.Equal(len(roots), 2)
	is.Equal(roots[0].ID, "a")
	is.Equal(roots[0].ChildCount, 2)
	is.Equal(roots[0].Children[0].ID, "b")
	is.Equal(roots[0].Children[0].Children[0].ID, "c")
	is.Equal(roots[1].ChildCount, 0)
	is.True(roots[1].Children != nil) // empty, not nil, so it encodes as []
	is.Equal(ids(roots), []string{"a", "b", "c", "e", "d"})
}

func TestBuild_Empty(t *testing.T) {
	is := is.New(t)
	roots := Build(nil)
	is.True(roots != nil)
	is.Equal(len(roots), 0)
}

func TestBuild_ParentageIndependentOfOrder(t *testing.T) {
	is := is.New(t)

	tasks := []model.Task{
		task("a", "", 0, 0),
		task("b", "a", 1, 0),
		task("c", "b", 2, 0),
		task("d", "", 0, 1),
		task("e", "d", 1, 0),
		task("f", "d", 1, 1),
		task("g", "f", 2, 0),
	}
	want := parentage(Build(tasks))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		shuffled := append([]model.Task(nil), tasks...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := parentage(Build(shuffled))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("parentage mismatch on permutation %d (-want +got):\n%s", i, diff)
		}
	}
	is.Equal(len(want), len(tasks))
}

func TestBuild_OrphanBecomesRoot(t *testing.T) {
	is := is.New(t)

	roots := Build([]model.Task{
		task("a", "", 0, 0),
		task("lost", "deleted-parent", 1, 0),
		task("child-of-lost", "lost", 2, 0),
	})

	is.Equal(len(roots), 2)
	is.Equal(roots[1].ID, "lost")
	is.Equal(roots[1].ChildCount, 1)
	is.Equal(Count(roots), 3)
}

func TestBuild_DepthInvariant(t *testing.T) {
	is := is.New(t)

	var tasks []model.Task
	for r := 0; r < 3; r++ {
		root := fmt.Sprintf("r%d", r)
		tasks = append(tasks, task(root, "", 0, r))
		for c := 0; c < 2; c++ {
			child := fmt.Sprintf("%s.c%d", root, c)
			tasks = append(tasks, task(child, root, 1, c))
			for g := 0; g < 2; g++ {
				tasks = append(tasks, task(fmt.Sprintf("%s.g%d", child, g), child, 2, g))
			}
		}
	}

	roots := Build(tasks)
	is.Equal(len(roots), 3)
	is.Equal(Count(roots), len(tasks))

	Walk(roots, func(node, parent *model.TaskNode) bool {
		is.True(node.DepthLevel <= model.MaxDepthLevel)
		if parent == nil {
			is.Equal(node.DepthLevel, 0)
		} else {
			is.Equal(node.DepthLevel, parent.DepthLevel+1)
		}
		return true
	})
}
