package scan

import "container/heap"

// Post is a post id to fetch with its priority. Higher priorities are
// fetched first; equal priorities keep their listed order.
type Post struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

type queuedPost struct {
	Post
	seq int
}

// postQueue is a max-heap on priority, FIFO among equals.
type postQueue []queuedPost

func (q postQueue) Len() int { return len(q) }

func (q postQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q postQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *postQueue) Push(x any) { *q = append(*q, x.(queuedPost)) }

func (q *postQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ByPriority returns posts in fetch order.
func ByPriority(posts []Post) []Post {
	q := make(postQueue, 0, len(posts))
	for i, p := range posts {
		q = append(q, queuedPost{Post: p, seq: i})
	}
	heap.Init(&q)

	out := make([]Post, 0, len(posts))
	for q.Len() > 0 {
		out = append(out, heap.Pop(&q).(queuedPost).Post)
	}
	return out
}
