package models

// PostTree is the reply tree of one thread, rebuilt from slug paths. Posts
// are addressed by their index in the thread's storage order.
type PostTree struct {
	Posts    []*Post
	Parent   []int   // -1 for top-level posts
	Children [][]int // in storage order
	Roots    []int   // in storage order; always starts with 0

	// Posts whose parent slug names no post in the thread. They are treated
	// as top-level posts.
	Dangling []int
	// Posts whose slug was already used by an earlier post. Replies to that
	// slug attach to the earlier one.
	Duplicates []int
}

func BuildPostTree(posts []*Post) *PostTree {
	tree := &PostTree{
		Posts:    posts,
		Parent:   make([]int, len(posts)),
		Children: make([][]int, len(posts)),
	}

	bySlug := make(map[string]int, len(posts))
	for i, post := range posts {
		if _, seen := bySlug[post.Slug]; seen {
			tree.Duplicates = append(tree.Duplicates, i)
			continue
		}
		bySlug[post.Slug] = i
	}

	for i, post := range posts {
		tree.Parent[i] = -1

		// The first post opens the topic, wherever its slug points.
		if i == 0 {
			tree.Roots = append(tree.Roots, i)
			continue
		}

		parentSlug := post.ParentSlug()
		if parentSlug == "" {
			tree.Roots = append(tree.Roots, i)
			continue
		}

		// A parent slug is always shorter than the child's, so following
		// parents can never cycle.
		parent, ok := bySlug[parentSlug]
		if !ok {
			tree.Dangling = append(tree.Dangling, i)
			tree.Roots = append(tree.Roots, i)
			continue
		}

		tree.Parent[i] = parent
		tree.Children[parent] = append(tree.Children[parent], i)
	}

	return tree
}

// Order returns post indices depth first, siblings in storage order.
func (t *PostTree) Order() []int {
	order := make([]int, 0, len(t.Posts))
	var visit func(i int)
	visit = func(i int) {
		order = append(order, i)
		for _, child := range t.Children[i] {
			visit(child)
		}
	}
	for _, root := range t.Roots {
		visit(root)
	}
	return order
}

// ParentPost returns the post that i replies to, or nil for top-level posts.
func (t *PostTree) ParentPost(i int) *Post {
	if t.Parent[i] < 0 {
		return nil
	}
	return t.Posts[t.Parent[i]]
}

// OrderPosts linearizes a thread the way a threaded discussion view shows it.
// The first element is always the topic-opening post; the rest are replies.
func OrderPosts(posts []*Post) []*Post {
	tree := BuildPostTree(posts)
	ordered := make([]*Post, 0, len(posts))
	for _, i := range tree.Order() {
		ordered = append(ordered, posts[i])
	}
	return ordered
}
