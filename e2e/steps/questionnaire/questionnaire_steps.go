package questionnaire

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	PUT(path string, body interface{}) error
	GET(path string) error
	DELETE(path string) error
	GetLastStatus() int
	GetResponseField(field string) (interface{}, error)
	GetSessionID() string
	SetSessionID(id string)
}

// RegisterSteps registers questionnaire wizard step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &questionnaireSteps{tc: tc}

	ctx.Step(`^I start a session with modules "([^"]*)"$`, steps.startSession)
	ctx.Step(`^I answer:$`, steps.answerTable)
	ctx.Step(`^I answer "([^"]*)" with "([^"]*)"$`, steps.answer)
	ctx.Step(`^I go to the next section$`, steps.next)
	ctx.Step(`^I go back$`, steps.back)
	ctx.Step(`^I submit the questionnaire$`, steps.submit)
	ctx.Step(`^I end the session$`, steps.endSession)
	ctx.Step(`^I fetch the session$`, steps.fetchSession)

	ctx.Step(`^the current section should be "([^"]*)"$`, steps.currentSectionShouldBe)
	ctx.Step(`^the field "([^"]*)" should have error "([^"]*)"$`, steps.fieldShouldHaveError)
	ctx.Step(`^the field "([^"]*)" should have an error$`, steps.fieldShouldHaveAnError)
	ctx.Step(`^the document should become "([^"]*)" within (\d+) seconds$`, steps.documentShouldBecome)
}

type questionnaireSteps struct {
	tc TestContext
}

func (s *questionnaireSteps) path(suffix string) string {
	return "/api/sessions/" + s.tc.GetSessionID() + suffix
}

func (s *questionnaireSteps) startSession(ctx context.Context, modules string) error {
	body := map[string]interface{}{
		"selected_modules": strings.Split(modules, ","),
	}
	if err := s.tc.POST("/api/sessions", body); err != nil {
		return err
	}
	if s.tc.GetLastStatus() != 201 {
		return fmt.Errorf("start session: expected 201, got %d", s.tc.GetLastStatus())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetSessionID(fmt.Sprint(id))
	return nil
}

func (s *questionnaireSteps) answerTable(ctx context.Context, table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 || len(row.Cells) < 2 {
			continue
		}
		if err := s.answer(ctx, row.Cells[0].Value, row.Cells[1].Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *questionnaireSteps) answer(ctx context.Context, question, raw string) error {
	if err := s.tc.PUT(s.path("/answers/"+question), map[string]interface{}{"value": parseValue(raw)}); err != nil {
		return err
	}
	if s.tc.GetLastStatus() != 200 {
		return fmt.Errorf("answer %s: expected 200, got %d", question, s.tc.GetLastStatus())
	}
	return nil
}

// parseValue turns table cells into JSON values: whole numbers become
// integers and "a; b" becomes a list.
func parseValue(raw string) interface{} {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if strings.Contains(raw, "; ") {
		return strings.Split(raw, "; ")
	}
	return raw
}

func (s *questionnaireSteps) next(ctx context.Context) error {
	return s.tc.POST(s.path("/next"), nil)
}

func (s *questionnaireSteps) back(ctx context.Context) error {
	return s.tc.POST(s.path("/back"), nil)
}

func (s *questionnaireSteps) submit(ctx context.Context) error {
	return s.tc.POST(s.path("/submit"), nil)
}

func (s *questionnaireSteps) endSession(ctx context.Context) error {
	return s.tc.DELETE(s.path(""))
}

func (s *questionnaireSteps) fetchSession(ctx context.Context) error {
	return s.tc.GET(s.path(""))
}

func (s *questionnaireSteps) currentSectionShouldBe(ctx context.Context, want string) error {
	field := "current_section.id"
	if s.tc.GetLastStatus() == 422 {
		field = "session.current_section.id"
	}
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected section %q, got %q", want, got)
	}
	return nil
}

func (s *questionnaireSteps) fieldShouldHaveError(ctx context.Context, question, want string) error {
	got, err := s.tc.GetResponseField("fields." + question)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s error %q, got %q", question, want, got)
	}
	return nil
}

func (s *questionnaireSteps) fieldShouldHaveAnError(ctx context.Context, question string) error {
	_, err := s.tc.GetResponseField("fields." + question)
	return err
}

func (s *questionnaireSteps) documentShouldBecome(ctx context.Context, want string, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	var last string
	for time.Now().Before(deadline) {
		if err := s.tc.GET(s.path("/document")); err != nil {
			return err
		}
		status, err := s.tc.GetResponseField("status")
		if err != nil {
			return err
		}
		last = fmt.Sprint(status)
		if last == want {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("document status %q, want %q after %ds", last, want, seconds)
}
