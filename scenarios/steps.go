package scenarios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
)

var (
	errNoClient   = errors.New("HTTP client not initialized")
	errNoResponse = errors.New("no response received")
	errNoData     = errors.New("Response missing 'data' array")
)

func givenAPIAvailable(_ context.Context, s *State) error {
	if s.Client == nil {
		return errNoClient
	}
	s.info(fmt.Sprintf("✓ API available at %s", s.Client.BaseURL()))
	return nil
}

func givenAPIKeySet(_ context.Context, s *State) error {
	if s.Client == nil {
		return errNoClient
	}
	s.info(fmt.Sprintf("✓ %s header configured", reqres.APIKeyHeader))
	return nil
}

func whenRequestUsersPage(page int) StepFunc {
	return func(ctx context.Context, s *State) error {
		if s.Client == nil {
			return errNoClient
		}
		resp, err := s.Client.Get(ctx, s.Recorder, fmt.Sprintf("%s?page=%d", reqres.UsersEndpoint, page))
		if err != nil {
			return err
		}
		s.Response = resp
		if len(resp.Body) == 0 {
			s.Body = map[string]json.RawMessage{}
			return nil
		}
		body, err := resp.Fields()
		if err != nil {
			return err
		}
		s.Body = body
		return nil
	}
}

func thenStatusIs(code int) StepFunc {
	return func(_ context.Context, s *State) error {
		if s.Response == nil {
			return errNoResponse
		}
		if s.Response.StatusCode != code {
			return fmt.Errorf("Expected status %d, got %d", code, s.Response.StatusCode)
		}
		s.info(fmt.Sprintf("✓ Response status: %d", code))
		return nil
	}
}

func thenPageIs(page int) StepFunc {
	return func(_ context.Context, s *State) error {
		raw, ok := s.Body["page"]
		if !ok {
			return errors.New("Response missing 'page' field")
		}
		var got int
		if err := json.Unmarshal(raw, &got); err != nil {
			return fmt.Errorf("Expected page value %d, got %s", page, string(raw))
		}
		if got != page {
			return fmt.Errorf("Expected page value %d, got %d", page, got)
		}
		s.info(fmt.Sprintf("✓ Page value: %d", page))
		return nil
	}
}

func (s *State) data() ([]json.RawMessage, error) {
	raw, ok := s.Body["data"]
	if !ok {
		return nil, errNoData
	}
	items, err := reqres.ArrayItems(raw)
	if err != nil {
		return nil, fmt.Errorf("Expected 'data' to be array, got %s", jsonKind(raw))
	}
	return items, nil
}

func thenDataIsArray(_ context.Context, s *State) error {
	items, err := s.data()
	if err != nil {
		return err
	}
	s.info(fmt.Sprintf("✓ Data array found with %d items", len(items)))
	return nil
}

func thenDataNotEmpty(_ context.Context, s *State) error {
	items, err := s.data()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("Data array is empty")
	}
	s.info("✓ Data array contains items")
	return nil
}

func thenDataHasItems(n int) StepFunc {
	return func(_ context.Context, s *State) error {
		items, err := s.data()
		if err != nil {
			return err
		}
		if len(items) != n {
			return fmt.Errorf("Expected %d items, got %d", n, len(items))
		}
		s.info(fmt.Sprintf("✓ Data array has %d items", n))
		return nil
	}
}

func thenFirstUserHasFields(fields ...string) StepFunc {
	return func(_ context.Context, s *State) error {
		items, err := s.data()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.New("Data array is empty")
		}
		user, err := reqres.ObjectFields(items[0])
		if err != nil {
			return err
		}
		var errs []error
		for _, field := range fields {
			if _, ok := user[field]; !ok {
				errs = append(errs, fmt.Errorf("User missing required field: %s", field))
				continue
			}
			s.info(fmt.Sprintf("✓ User has '%s' field", field))
		}
		return errors.Join(errs...)
	}
}

func thenHasPaginationFields(fields ...string) StepFunc {
	return func(_ context.Context, s *State) error {
		var missing []string
		for _, field := range fields {
			if _, ok := s.Body[field]; !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("Missing pagination fields: %s", strings.Join(missing, ", "))
		}
		s.info("✓ Pagination structure verified")
		return nil
	}
}

func thenFindUser(id int) StepFunc {
	return func(_ context.Context, s *State) error {
		items, err := s.data()
		if err != nil {
			return err
		}
		for _, item := range items {
			user, err := reqres.ObjectFields(item)
			if err != nil {
				continue
			}
			var got int
			if err := json.Unmarshal(user["id"], &got); err != nil || got != id {
				continue
			}
			s.CurrentUser = user
			s.info(fmt.Sprintf("✓ Found user with id=%d", id))
			return nil
		}
		return fmt.Errorf("User with id %d not found", id)
	}
}

func thenUserHasEmail(_ context.Context, s *State) error {
	raw, ok := s.CurrentUser["email"]
	if !ok {
		return errors.New("User missing email field")
	}
	var email string
	if err := json.Unmarshal(raw, &email); err != nil {
		return fmt.Errorf("User email is not a string: %s", string(raw))
	}
	s.CurrentEmail = email
	if email == "" {
		return errors.New("User email is empty")
	}
	s.info(fmt.Sprintf("✓ User email: %s", email))
	return nil
}

func thenEmailContains(part string) StepFunc {
	return func(_ context.Context, s *State) error {
		if s.CurrentEmail == "" {
			return errors.New("Email not available")
		}
		if !strings.Contains(s.CurrentEmail, part) {
			return fmt.Errorf("Email '%s' does not contain %s", s.CurrentEmail, part)
		}
		s.info(fmt.Sprintf("✓ Email contains %s", part))
		return nil
	}
}

func thenEmailIs(expected string) StepFunc {
	return func(_ context.Context, s *State) error {
		if s.CurrentEmail != expected {
			return fmt.Errorf("Expected email '%s', got '%s'", expected, s.CurrentEmail)
		}
		s.info(fmt.Sprintf("✓ Email is %s", expected))
		return nil
	}
}

func jsonKind(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "Undefined"
	}
	switch trimmed[0] {
	case '{':
		return "Object"
	case '[':
		return "Array"
	case '"':
		return "String"
	case 't', 'f':
		return "Boolean"
	case 'n':
		return "Null"
	default:
		return "Number"
	}
}
