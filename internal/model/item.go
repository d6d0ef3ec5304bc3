package model

// Item is a to-do entry as the server reports it.
// The server assigns ID; the client only ever holds a copy from the last list fetch.
type Item struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Stats counts completed and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Find returns the item with the given id.
func Find(items []Item, id int64) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
