package media

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// route is one (pattern, provider) pair in registration order.
type route struct {
	pattern  *regexp.Regexp
	provider Provider
}

// Registry holds an ordered list of (URL pattern, Provider) pairs and
// classifies inbound text. Classification is deterministic first-match; text
// matching no pattern is treated as a free-text query by the caller.
type Registry struct {
	routes    []route
	providers map[string]Provider
	logger    *utils.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *utils.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger.Named("provider_registry"),
	}
}

// Register appends a provider with its URL pattern. Registration order
// determines match precedence and the order sources are offered to users.
func (r *Registry) Register(pattern string, provider Provider) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid provider pattern %q: %w", pattern, err)
	}

	r.routes = append(r.routes, route{pattern: re, provider: provider})
	r.providers[provider.Name()] = provider
	r.logger.Info("Registered media provider", "provider", provider.Name(), "pattern", pattern)
	return nil
}

// Match returns the first provider whose pattern matches the input.
func (r *Registry) Match(input string) (Provider, bool) {
	for _, rt := range r.routes {
		if rt.pattern.MatchString(input) {
			return rt.provider, true
		}
	}
	return nil, false
}

// Provider returns a registered provider by name.
func (r *Registry) Provider(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Sources returns provider names in registration order, for choice prompts.
func (r *Registry) Sources() []string {
	return lo.Uniq(lo.Map(r.routes, func(rt route, _ int) string {
		return rt.provider.Name()
	}))
}

// NeedsFormatChoice reports whether the provider supports more than one
// payload format.
func NeedsFormatChoice(p Provider) bool {
	return len(p.Formats()) > 1
}

// DefaultFormat returns the only format of a single-format provider, or
// FormatAudio as the fallback.
func DefaultFormat(p Provider) models.MediaFormat {
	return lo.FirstOr(p.Formats(), models.FormatAudio)
}
