package models

type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Task struct {
	ID       string `json:"id"`
	ColumnID string `json:"columnId"`
	Content  string `json:"content"`
}

type Board struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
}

// DefaultBoard is the fixed starting content every newly created board gets.
func DefaultBoard() Board {
	return Board{
		Title: "My Board",
		Columns: []Column{
			{ID: "todo", Title: "TO DO"},
			{ID: "progress", Title: "In Progress"},
			{ID: "done", Title: "Done"},
		},
		Tasks: []Task{
			{ID: "14", ColumnID: "todo", Content: "New Task 1"},
		},
	}
}
