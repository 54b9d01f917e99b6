// Package classify evaluates intercepted requests against a fixed set of
// privacy/security rules. Rules run independently and unconditionally; a
// rule's own matching error degrades to "not triggered" for that request so
// one bad input can never stall the pipeline.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Yashwin-i/NetWatch/internal/logging"
	"github.com/Yashwin-i/NetWatch/internal/shared/types"
)

// Violation issue labels.
const (
	IssueUnencrypted     = "Unencrypted (HTTP)"
	IssueThirdPartyTrack = "3rd Party Tracker"
	IssueFirstPartyTrack = "Hidden 1st Party Tracker"
	IssuePIIEmail        = "PII (Email) Leak"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Classifier applies the rule set to request descriptions.
type Classifier struct {
	rules  *Rules
	logger *logging.Logger
}

// New creates a classifier with the given rules; nil rules selects the
// compiled-in defaults.
func New(rules *Rules, logger *logging.Logger) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Classifier{rules: rules, logger: logger}
}

// Classify returns the union of all triggered violations plus the tracker
// flag. mainDomain is the normalized hostname of the scan's target page and
// decides first- vs third-party for the tracker rule.
func (c *Classifier) Classify(req types.RequestDescription, payload, mainDomain string) ([]types.Violation, bool) {
	violations := make([]types.Violation, 0, 3)

	if c.isUnencrypted(req.URL) {
		violations = append(violations, types.Violation{
			Issue:    IssueUnencrypted,
			Severity: types.SeverityHigh,
		})
	}

	isTracker := false
	if issue, ok := c.matchTracker(req.URL, mainDomain); ok {
		isTracker = true
		violations = append(violations, types.Violation{
			Issue:    issue,
			Severity: types.SeverityMedium,
		})
	}

	if c.leaksEmail(req.URL, payload) {
		violations = append(violations, types.Violation{
			Issue:    IssuePIIEmail,
			Severity: types.SeverityCritical,
		})
	}

	return violations, isTracker
}

func (c *Classifier) isUnencrypted(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), "http://")
}

// matchTracker checks the URL against the tracker substring list. Same-domain
// trackers get a distinct label because they evade plain domain blocklists.
func (c *Classifier) matchTracker(rawURL, mainDomain string) (string, bool) {
	lower := strings.ToLower(rawURL)
	matched := false
	for _, needle := range c.rules.TrackerPatterns {
		if strings.Contains(lower, strings.ToLower(needle)) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	host := strings.ToLower(hostnameOf(rawURL))
	mainDomain = strings.ToLower(mainDomain)
	if host == "" || mainDomain == "" || !strings.Contains(host, mainDomain) {
		return IssueThirdPartyTrack, true
	}
	return IssueFirstPartyTrack, true
}

func (c *Classifier) leaksEmail(rawURL, payload string) bool {
	defer func() {
		// Regexp matching on adversarial input must never take down the
		// request pipeline; a panic means this rule does not trigger.
		if r := recover(); r != nil {
			c.logger.Warn("pii rule recovered", zap.Any("cause", r))
		}
	}()
	return emailPattern.MatchString(rawURL) || emailPattern.MatchString(payload)
}

// hostnameOf parses the hostname out of a URL, tolerating malformed input.
func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
