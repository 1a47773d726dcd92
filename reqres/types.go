package reqres

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is one entry of the users list
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Support is the support block reqres appends to list responses
type Support struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// UsersPage is the body of GET /api/users
type UsersPage struct {
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Data       []User  `json:"data"`
	Support    Support `json:"support"`
}

// FindUser returns the user with the given id
func (p *UsersPage) FindUser(id int) (User, bool) {
	for _, u := range p.Data {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Response is a fully read HTTP response
type Response struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fields decodes the body as a JSON object for field presence checks
func (r *Response) Fields() (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response body from %s: %w", r.Endpoint, err)
	}
	return fields, nil
}

// ObjectFields decodes a JSON object into its raw fields
func ObjectFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode JSON object: %w", err)
	}
	return fields, nil
}

// ArrayItems decodes a JSON array into its raw items
func ArrayItems(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	return items, nil
}
