package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tasklist-app/internal/models"
	"tasklist-app/internal/storage"
)

const helpText = `🤖 Commands

/add <task> - add a task owned by you
/list - show all tasks
/get <id> - show one task
/delete <id> - delete a task
/help - this message

Plain text messages are added as tasks too.`

// commands выполняет команды бота по той же схеме, что и HTTP API:
// прочитать хранилище, изменить, записать целиком.
type commands struct {
	store storage.Storage
}

func (c *commands) execute(command, args, owner string) string {
	switch command {
	case "start", "help":
		return helpText
	case "add":
		return c.add(args, owner)
	case "list":
		return c.list()
	case "get":
		return c.get(args)
	case "delete":
		return c.delete(args)
	default:
		return "Unknown command. Use /help to see the list."
	}
}

func (c *commands) add(name, owner string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Specify the task after the command: /add Buy milk"
	}

	list := c.store.Load()
	task := list.Add(models.TaskInput{Name: name, Owner: owner})
	if err := c.store.Save(list); err != nil {
		return "❌ Could not save task: " + err.Error()
	}

	return fmt.Sprintf("✅ Task added\n\nID: #%d\nTask: %s", task.ID, task.Name)
}

func (c *commands) list() string {
	tasks := c.store.Load().Tasks()
	if len(tasks) == 0 {
		return "📭 Task list is empty"
	}

	var b strings.Builder
	b.WriteString("📋 Tasks:\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "#%d: %s (%s)\n", task.ID, task.Name, task.Owner)
	}
	return b.String()
}

func (c *commands) get(args string) string {
	id, err := parseTaskID(args)
	if err != nil {
		return err.Error()
	}

	task, ok := c.store.Load().GetByID(id)
	if !ok {
		return fmt.Sprintf("Task #%d not found", id)
	}
	return fmt.Sprintf("#%d: %s (%s)", task.ID, task.Name, task.Owner)
}

func (c *commands) delete(args string) string {
	id, err := parseTaskID(args)
	if err != nil {
		return err.Error()
	}

	list := c.store.Load()
	before := list.Len()
	list.RemoveByID(id)
	if list.Len() == before {
		return fmt.Sprintf("Task #%d not found", id)
	}
	if err := c.store.Save(list); err != nil {
		return "❌ Could not save tasks: " + err.Error()
	}

	return fmt.Sprintf("🗑️ Task #%d deleted", id)
}

func parseTaskID(args string) (uint32, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, errors.New("Specify the task number: /get 1")
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(args, "#"), 10, 32)
	if err != nil {
		return 0, errors.New("Task number must be a positive integer")
	}
	return uint32(id), nil
}
