// internal/errors/service.go - retry coordination and user-facing error reporting
package errors

import (
	"fmt"
	"strings"
)

// Service holds the render retry and failure policies of a run and turns
// failures into CLI output.
type Service struct {
	policy         RetryPolicy
	failurePolicy  FailurePolicy
	messageHandler *MessageHandler
}

// FailurePolicy defines what happens to collected rows when a run fails.
type FailurePolicy struct {
	SavePartialResults bool `yaml:"save_partial_results" json:"save_partial_results"`
}

// MessageHandler converts technical errors to user-friendly messages
type MessageHandler struct {
	showTechnical bool
}

// NewService creates a service with the default retry policy.
func NewService() *Service {
	return &Service{
		policy:         DefaultRetryPolicy(),
		failurePolicy:  FailurePolicy{SavePartialResults: true},
		messageHandler: &MessageHandler{},
	}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.messageHandler.showTechnical = verbose
	return s
}

// WithPolicy replaces the retry policy.
func (s *Service) WithPolicy(policy RetryPolicy) *Service {
	s.policy = policy
	return s
}

// WithFailurePolicy replaces the failure policy.
func (s *Service) WithFailurePolicy(policy FailurePolicy) *Service {
	s.failurePolicy = policy
	return s
}

// Policy returns the active retry policy.
func (s *Service) Policy() RetryPolicy { return s.policy }

// SavePartialResults reports whether rows gathered before a failure are kept.
func (s *Service) SavePartialResults() bool { return s.failurePolicy.SavePartialResults }

// GetUserFriendlyError converts technical errors to user-friendly messages
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	switch KindOf(err) {
	case KindAuthentication:
		return "Sign-in Failed",
			"The site did not accept the configured credentials.",
			[]string{
				"Check ANC_USERNAME/ANC_PASSWORD or FS_USERNAME/FS_PASSWORD",
				"Sign in manually once to clear any security prompt",
				"Run with --verbose and a visible browser (headless: false)",
			}
	case KindNotFound:
		return "Collection Not Found",
			"The requested collection has no browsable record set.",
			[]string{
				"Check the collection code in the configuration",
				"Open the collection page in a browser and look for the browse box",
			}
	case KindTransientRender:
		return "Page Did Not Render",
			"A page kept failing to render the expected elements.",
			[]string{
				"Increase retry.max_attempts or the waits in the configuration",
				"The site layout may have changed; check the locator file",
				"Slow down navigation with rate_limit.requests_per_second",
			}
	case KindConfig:
		return "Configuration Error",
			"The configuration is invalid.",
			[]string{
				"Run 'parishscraper validate' for field-level details",
				"Check YAML indentation (use spaces, not tabs)",
			}
	case KindOutput:
		return "Output Error",
			"The dataset could not be written.",
			[]string{
				"Check the output path or connection string",
				"Make sure the target database is reachable",
			}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "chrome") || strings.Contains(errStr, "browser"):
		return "Browser Error",
			"The automated browser could not be started or controlled.",
			[]string{
				"Make sure Chrome or Chromium is installed",
				"Set browser.exec_path to the browser binary",
			}
	case strings.Contains(errStr, "yaml"):
		return "Configuration Error",
			"The configuration file has invalid YAML syntax.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Ensure proper quoting of string values",
			}
	case strings.Contains(errStr, "context canceled"):
		return "Interrupted",
			"The run was cancelled before it finished.",
			nil
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Try running the command again",
			"Check your configuration file",
			"Verify your internet connection",
		}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch KindOf(err) {
	case KindConfig:
		return 2
	case KindTransientRender:
		return 3
	case KindOutput:
		return 5
	case KindAuthentication:
		return 8
	case KindNotFound:
		return 9
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "config") || strings.Contains(errStr, "yaml"):
		return 2
	case strings.Contains(errStr, "parse"):
		return 4
	case strings.Contains(errStr, "context canceled"):
		return 130
	default:
		return 1
	}
}

// FormatErrorForCLI formats error for command-line display
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	output := fmt.Sprintf("❌ %s\n%s\n", title, message)

	if s.messageHandler.showTechnical {
		output += fmt.Sprintf("\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		output += "\n💡 Suggestions:\n"
		for _, suggestion := range suggestions {
			output += fmt.Sprintf("  • %s\n", suggestion)
		}
	}

	return output
}
