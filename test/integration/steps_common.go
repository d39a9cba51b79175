package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	currentUser  string
	// suffix keeps slugs and emails unique across scenarios sharing a database
	suffix string
	users  map[string]string
	vars   map[string]string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:     tc,
		suffix: uuid.NewString()[:8],
		users:  make(map[string]string),
		vars:   make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a BoardGuru server is running$`, s.aServerIsRunning)
	sc.Step(`^I am signed in as "([^"]*)"$`, s.signIn)
	sc.Step(`^I am signed in as "([^"]*)" with an expired token$`, s.signInWithExpiredToken)
	sc.Step(`^I am not signed in$`, s.signOut)
	sc.Step(`^an organization "([^"]*)" owned by "([^"]*)" exists$`, s.anOrganizationOwnedByExists)

	sc.Step(`^I send a (GET|POST|PATCH|DELETE) request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a (POST|PATCH) request to "([^"]*)" with body:$`, s.iSendARequestWithBody)

	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the error code should be "([^"]*)"$`, s.theErrorCodeShouldBe)
	sc.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, s.iRememberTheResponseField)

	sc.Step(`^the organization "([^"]*)" should have (\d+) members?$`, s.theOrganizationShouldHaveMembers)
	sc.Step(`^the organization "([^"]*)" should have a default vault$`, s.theOrganizationShouldHaveADefaultVault)
	sc.Step(`^the invitation "([^"]*)" has expired$`, s.theInvitationHasExpired)
}

func (s *StepsContext) aServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

// expand replaces {name} placeholders with remembered values, {suffix} with
// the scenario suffix and {email:user} with the email of a user
func (s *StepsContext) expand(text string) string {
	text = strings.ReplaceAll(text, "{suffix}", s.suffix)
	for user := range s.users {
		text = strings.ReplaceAll(text, "{email:"+user+"}", s.emailOf(user))
		text = strings.ReplaceAll(text, "{user:"+user+"}", s.users[user])
	}
	for name, value := range s.vars {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

func (s *StepsContext) do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.tc.ServerURL+s.expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	return s.do(method, path, nil)
}

func (s *StepsContext) iSendARequestWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, path, []byte(s.expand(body.Content)))
}

func (s *StepsContext) anOrganizationOwnedByExists(slug, owner string) error {
	if err := s.signIn(owner); err != nil {
		return err
	}
	body, _ := json.Marshal(map[string]string{
		"name": "Organization " + slug,
		"slug": slug + "-" + s.suffix,
	})
	if err := s.do(http.MethodPost, "/organizations", body); err != nil {
		return err
	}
	if err := s.theResponseStatusShouldBe(http.StatusCreated); err != nil {
		return err
	}
	return s.iRememberTheResponseField("id", slug)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response == nil {
		return fmt.Errorf("no request has been sent")
	}
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

// field resolves a dotted path such as "error.code" or "items.0.slug"
func (s *StepsContext) field(path string) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(s.responseBody, &doc); err != nil {
		return "", fmt.Errorf("response is not JSON: %w", err)
	}

	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return "", fmt.Errorf("field %q not found in %s", path, string(s.responseBody))
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return "", fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = v[i]
		default:
			return "", fmt.Errorf("field %q not found in %s", path, string(s.responseBody))
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		out, _ := json.Marshal(v)
		return string(out), nil
	}
}

func (s *StepsContext) theResponseFieldShouldBe(path, expected string) error {
	actual, err := s.field(path)
	if err != nil {
		return err
	}
	if expected = s.expand(expected); actual != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, actual)
	}
	return nil
}

func (s *StepsContext) theErrorCodeShouldBe(code string) error {
	return s.theResponseFieldShouldBe("error.code", code)
}

func (s *StepsContext) iRememberTheResponseField(path, name string) error {
	value, err := s.field(path)
	if err != nil {
		return err
	}
	s.vars[name] = value
	return nil
}

// Database steps

func (s *StepsContext) theOrganizationShouldHaveMembers(name string, expected int) error {
	var count int64
	err := s.tc.DB.Table("organization_members").
		Where("organization_id = ? AND status = ?", s.vars[name], "active").
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d members, found %d", expected, count)
	}
	return nil
}

func (s *StepsContext) theOrganizationShouldHaveADefaultVault(name string) error {
	var count int64
	err := s.tc.DB.Table("vaults").
		Where("organization_id = ? AND is_default", s.vars[name]).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != 1 {
		return fmt.Errorf("expected one default vault, found %d", count)
	}
	return nil
}

func (s *StepsContext) theInvitationHasExpired(name string) error {
	return s.tc.DB.Exec(
		`UPDATE invitations SET expires_at = now() - interval '1 hour' WHERE id = ?`,
		s.vars[name],
	).Error
}
