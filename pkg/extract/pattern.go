package extract

import (
	"regexp"
	"strings"

	"linkdeck-backend/internal/ingest/domain"
)

// PatternExtractor is the cheap fast path: newsletter platforms embed a
// canonical post link in their HTML, so for known platform senders a single
// regexp match replaces a model call.
type PatternExtractor struct {
	platformDomains []string
	linkPattern     *regexp.Regexp
}

var substackAppLink = regexp.MustCompile(`https://[A-Za-z0-9.-]+\.substack\.com/app-link/post[^\s"'<>)]*`)

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{
		platformDomains: []string{"substack.com"},
		linkPattern:     substackAppLink,
	}
}

// Extract returns exactly one link on a pattern hit. ErrFastPathNotApplicable
// means the sender is not on a known platform; ErrNoPatternLink means the
// sender matched but the HTML carried no recognizable content link. Either
// sentinel hands the message to the model-based stage.
func (p *PatternExtractor) Extract(msg *domain.InboundMessage) ([]domain.ExtractedLink, error) {
	addr := domain.NormalizeAddress(msg.From)
	if !p.isPlatformSender(addr) {
		return nil, domain.ErrFastPathNotApplicable
	}

	match := p.linkPattern.FindString(msg.HTML)
	if match == "" {
		return nil, domain.ErrNoPatternLink
	}

	return []domain.ExtractedLink{{
		URL:         match,
		Description: msg.Subject,
	}}, nil
}

func (p *PatternExtractor) isPlatformSender(addr string) bool {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return false
	}
	senderDomain := addr[at+1:]
	for _, platform := range p.platformDomains {
		if senderDomain == platform || strings.HasSuffix(senderDomain, "."+platform) {
			return true
		}
	}
	return false
}
