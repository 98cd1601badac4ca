package mq

type CategoryPayload struct {
	Owner      string `json:"owner"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name,omitempty"`
}

type TaskPayload struct {
	Owner      string `json:"owner"`
	CategoryID string `json:"category_id"`
	TaskID     string `json:"task_id"`
	Title      string `json:"title,omitempty"`
	Completed  bool   `json:"completed"`
	Archived   bool   `json:"archived"`
}

type ImportPayload struct {
	Owner      string `json:"owner"`
	Strategy   string `json:"strategy"`
	Categories int    `json:"categories"`
	Todos      int    `json:"todos"`
}
