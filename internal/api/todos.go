package api

import (
	"context"
	"net/url"

	"github.com/Makepad-fr/tada/internal/model"
)

// Login posts credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	var res model.LoginResult
	err := c.Post(ctx, "/users/login", creds, &res)
	return res, err
}

// ListTodos returns the items in server order.
func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var items []model.Todo
	if err := c.Get(ctx, "/todos", &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Todo{}
	}
	return items, nil
}

type createTodo struct {
	Body     string `json:"body"`
	Complete bool   `json:"complete"`
}

// CreateTodo adds a new, incomplete item.
func (c *Client) CreateTodo(ctx context.Context, body string) (model.Todo, error) {
	var td model.Todo
	err := c.Post(ctx, "/todos", createTodo{Body: body, Complete: false}, &td)
	return td, err
}

type patchTodo struct {
	Complete bool `json:"complete"`
}

// SetComplete sets the completion flag of one item.
func (c *Client) SetComplete(ctx context.Context, id model.ID, complete bool) (model.Todo, error) {
	var td model.Todo
	err := c.Patch(ctx, todoPath(id), patchTodo{Complete: complete}, &td)
	return td, err
}

// DeleteTodo removes one item.
func (c *Client) DeleteTodo(ctx context.Context, id model.ID) error {
	return c.Delete(ctx, todoPath(id), nil)
}

func todoPath(id model.ID) string {
	return "/todos/" + url.PathEscape(id.String())
}
