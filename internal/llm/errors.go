package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFatalAPI marks provider errors that retrying will not fix, such as
// exhausted quota or rejected credentials.
var ErrFatalAPI = errors.New("fatal API error")

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
}

var fatalStatus = regexp.MustCompile(`\b(401|403)\b`)

// IsFatalAPIError reports whether err is a quota or authentication failure.
func IsFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFatalAPI) {
		return true
	}
	return isFatalAPIError(err)
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return fatalStatus.MatchString(msg)
}

// wrapFatalError tags fatal errors with ErrFatalAPI and returns others unchanged.
func wrapFatalError(err error) error {
	if err == nil || !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
