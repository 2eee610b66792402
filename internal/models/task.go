package models

import "encoding/json"

// Task - задача в списке. После создания не меняется.
type Task struct {
	ID    uint32 `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// TaskInput - тело запроса на создание задачи (без ID)
type TaskInput struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func (t Task) JSON() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
