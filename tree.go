package cruces

// TreeNode is a Tipo with its children nested under it.
type TreeNode struct {
	Tipo
	Children []*TreeNode `json:"children"`
}

// BuildTree nests nodes by ParentID, starting from the roots (nil parent).
// Sibling order follows the input order. Each id is placed at most once, so
// corrupted parent cycles and duplicate ids cannot make it loop; nodes only
// reachable through a cycle or a missing parent are left out.
func BuildTree(nodes []Tipo) []*TreeNode {
	children := make(map[uint][]int)
	var roots []int
	for i, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], i)
	}

	placed := make(map[uint]bool, len(nodes))
	var build func(idxs []int) []*TreeNode
	build = func(idxs []int) []*TreeNode {
		out := make([]*TreeNode, 0, len(idxs))
		for _, i := range idxs {
			n := nodes[i]
			if placed[n.ID] {
				continue
			}
			placed[n.ID] = true
			out = append(out, &TreeNode{Tipo: n, Children: build(children[n.ID])})
		}
		return out
	}
	return build(roots)
}

type interval struct {
	Left, Right int
}

// nestIntervals numbers the forest described by nodes' parent pointers from 1,
// in pre-order. nodes must be sorted by their current Left so that sibling
// order is kept; the node lastID is placed after its new siblings. Nodes with
// an unknown parent are treated as roots, and nodes stranded on a parent cycle
// are numbered as roots after the rest, so every node gets an interval.
func nestIntervals(nodes []Tipo, lastID uint) map[uint]interval {
	known := make(map[uint]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	children := make(map[uint][]uint)
	var roots []uint
	place := func(n Tipo) {
		if n.ParentID == nil || !known[*n.ParentID] {
			roots = append(roots, n.ID)
			return
		}
		children[*n.ParentID] = append(children[*n.ParentID], n.ID)
	}
	var last *Tipo
	for i := range nodes {
		if nodes[i].ID == lastID {
			last = &nodes[i]
			continue
		}
		place(nodes[i])
	}
	if last != nil {
		place(*last)
	}

	out := make(map[uint]interval, len(nodes))
	counter := 0
	type frame struct {
		id   uint
		next int
	}
	walk := func(root uint) {
		if _, seen := out[root]; seen {
			return
		}
		counter++
		out[root] = interval{Left: counter}
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.id]
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				if _, seen := out[child]; seen {
					continue
				}
				counter++
				out[child] = interval{Left: counter}
				stack = append(stack, frame{id: child})
				continue
			}
			counter++
			iv := out[top.id]
			iv.Right = counter
			out[top.id] = iv
			stack = stack[:len(stack)-1]
		}
	}

	for _, r := range roots {
		walk(r)
	}
	for _, n := range nodes {
		walk(n.ID)
	}
	return out
}
