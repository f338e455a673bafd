package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

var (
	sshRemotePattern   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	httpsRemotePattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	shortPattern       = regexp.MustCompile(`^([^/\s]+)/([^/\s]+)$`)
)

// ParseRepositoryArg parses a repository given as owner/repo or as a GitHub URL.
// A lower case "iobroker." name prefix is normalized to "ioBroker.".
func ParseRepositoryArg(arg string) (tracking.Repository, error) {
	arg = strings.TrimSpace(arg)

	var m []string
	for _, pattern := range []*regexp.Regexp{sshRemotePattern, httpsRemotePattern, shortPattern} {
		if m = pattern.FindStringSubmatch(arg); m != nil {
			break
		}
	}
	if m == nil {
		return tracking.Repository{}, fmt.Errorf("invalid repository %q, expected owner/repo or a GitHub URL", arg)
	}

	name := m[2]
	if strings.HasPrefix(strings.ToLower(name), "iobroker.") {
		name = "ioBroker." + name[len("iobroker."):]
	}
	return tracking.Repository{Owner: m[1], Name: name}, nil
}
