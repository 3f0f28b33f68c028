package tgbot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lonesomestranger/3x-ui-manager/service/profile"
)

var (
	limitPattern = regexp.MustCompile(`(?i)^limit=(\d+)$`)
	daysPattern  = regexp.MustCompile(`(?i)^days=(\d+)$`)
)

// createArgs are the free-form creation arguments: every limit=/days= token
// is picked out wherever it appears, the rest joins into the remark.
type createArgs struct {
	Remark  string
	LimitGB int
	Days    int
}

func parseCreateArgs(tokens []string) createArgs {
	var args createArgs
	var remarkParts []string
	for _, token := range tokens {
		if match := limitPattern.FindStringSubmatch(token); match != nil {
			args.LimitGB, _ = strconv.Atoi(match[1])
		} else if match := daysPattern.FindStringSubmatch(token); match != nil {
			args.Days, _ = strconv.Atoi(match[1])
		} else {
			remarkParts = append(remarkParts, token)
		}
	}
	args.Remark = strings.Join(remarkParts, " ")
	return args
}

// parseProxyEndpoint parses the host:port:user:pass form of /new.
func parseProxyEndpoint(s string) (profile.ProxyEndpoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return profile.ProxyEndpoint{}, fmt.Errorf("expected host:port:user:pass, got %q", s)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return profile.ProxyEndpoint{}, fmt.Errorf("invalid proxy port %q", parts[1])
	}
	return profile.ProxyEndpoint{
		Host:     parts[0],
		Port:     port,
		User:     parts[2],
		Password: parts[3],
	}, nil
}
