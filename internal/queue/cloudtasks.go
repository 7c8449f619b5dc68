package queue

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortgen/internal/infra"
)

// CloudTasks is the managed dispatch backend. Enqueue creates one push task
// whose HTTP request re-enters the worker service's process endpoint with
// the JSON payload in the task body. Delivery and retry of the task itself
// are the managed backend's responsibility.
type CloudTasks struct {
	baseURL    string
	queuePath  string
	targetURL  string
	token      string
	httpClient *http.Client
	logger     infra.Logger
}

// CloudTasksOptions configures the managed dispatcher.
type CloudTasksOptions struct {
	BaseURL    string
	Project    string
	Location   string
	Queue      string
	WorkerURL  string
	Token      string
	HTTPClient *http.Client
	Logger     infra.Logger
}

// NewCloudTasks constructs the managed dispatcher.
func NewCloudTasks(opts CloudTasksOptions) (*CloudTasks, error) {
	if opts.Project == "" || opts.Location == "" || opts.Queue == "" {
		return nil, errors.New("queue: project, location and queue are required")
	}
	workerURL := strings.TrimRight(opts.WorkerURL, "/")
	if workerURL == "" {
		return nil, errors.New("queue: worker url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://cloudtasks.googleapis.com/v2"
	}
	return &CloudTasks{
		baseURL:    baseURL,
		queuePath:  fmt.Sprintf("projects/%s/locations/%s/queues/%s", opts.Project, opts.Location, opts.Queue),
		targetURL:  workerURL + "/worker/process",
		token:      strings.TrimSpace(opts.Token),
		httpClient: client,
		logger:     opts.Logger,
	}, nil
}

type createTaskRequest struct {
	Task struct {
		HTTPRequest struct {
			HTTPMethod string            `json:"httpMethod"`
			URL        string            `json:"url"`
			Headers    map[string]string `json:"headers,omitempty"`
			Body       string            `json:"body"`
		} `json:"httpRequest"`
	} `json:"task"`
}

type createTaskResponse struct {
	Name string `json:"name"`
}

// Enqueue creates the push task. The call is fire-and-forget from the
// engine's perspective; the returned error exists for logging only.
func (c *CloudTasks) Enqueue(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("queue: encode payload: %w", err)
	}

	var task createTaskRequest
	task.Task.HTTPRequest.HTTPMethod = http.MethodPost
	task.Task.HTTPRequest.URL = c.targetURL
	task.Task.HTTPRequest.Headers = map[string]string{"Content-Type": "application/json"}
	task.Task.HTTPRequest.Body = base64.StdEncoding.EncodeToString(body)

	reqBody, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("queue: encode task: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s/tasks", c.baseURL, c.queuePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("queue: create task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("queue: create task: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("queue: create task status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var created createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.Name != "" {
		c.logger.Debug().Str("job_id", p.JobID).Str("task", created.Name).Msg("queue: task created")
	}
	return nil
}

var _ Dispatcher = (*CloudTasks)(nil)
