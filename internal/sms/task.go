package sms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskType is the attribute value marking a message as an SMS send task.
const TaskType = "sms.send"

// Task is the payload carried on the SMS topic.
type Task struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Validate checks the task carries enough to attempt a send.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Phone) == "" {
		return fmt.Errorf("sms task phone is required")
	}
	if strings.TrimSpace(t.Message) == "" {
		return fmt.Errorf("sms task message is required")
	}
	return nil
}

// Encode serializes the task for publishing.
func (t Task) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// DecodeTask parses and validates a task payload.
func DecodeTask(data []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return Task{}, fmt.Errorf("decoding sms task: %w", err)
	}
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	return task, nil
}
