package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"norelock.dev/tunegate/backend/internal/cache"
	"norelock.dev/tunegate/backend/internal/config"
	"norelock.dev/tunegate/backend/internal/db/mongo/repositories"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/services/conversation"
	"norelock.dev/tunegate/backend/internal/services/media"
	"norelock.dev/tunegate/backend/internal/utils"
)

// cancelKeyword discards the active dialogue from any state.
const cancelKeyword = "cancel"

// Dispatcher is the application core behind the inbound API. It classifies
// messages (URL vs free text), drives the conversation machine, routes every
// resolution through the cache, and enforces the duration policy. Provider
// failures are wrapped, never retried here.
type Dispatcher struct {
	users       repositories.UserRepository
	registry    *media.Registry
	machine     *conversation.Machine
	resolutions *cache.ResolutionCache

	maxDuration     int
	searchLimit     int
	providerTimeout time.Duration

	logger *utils.Logger
}

// NewDispatcher creates a dispatcher wired to the given collaborators.
func NewDispatcher(
	users repositories.UserRepository,
	registry *media.Registry,
	machine *conversation.Machine,
	resolutions *cache.ResolutionCache,
	cfg *config.Config,
	logger *utils.Logger,
) *Dispatcher {
	return &Dispatcher{
		users:           users,
		registry:        registry,
		machine:         machine,
		resolutions:     resolutions,
		maxDuration:     cfg.Media.MaxDuration,
		searchLimit:     cfg.Media.SearchLimit,
		providerTimeout: cfg.Media.ProviderTimeout,
		logger:          logger.Named("dispatcher"),
	}
}

// HandleStart registers a user on first contact. Registration is idempotent:
// an already registered user gets their stored record back unchanged, since
// user records are write-once. Any pending dialogue for the user is discarded.
func (d *Dispatcher) HandleStart(ctx context.Context, chatID int64, username, displayName string) (*models.User, error) {
	d.machine.Cancel(chatID)

	user := &models.User{
		ChatID:      chatID,
		Username:    username,
		DisplayName: displayName,
	}

	err := d.users.Create(ctx, user)
	if err == nil {
		d.logger.Info("Registered user", "chatId", chatID, "username", username)
		return user, nil
	}
	if !errors.Is(err, models.ErrUserAlreadyExists) {
		d.logger.Error("Failed to register user", err, "chatId", chatID)
		return nil, err
	}

	return d.users.FindByChatID(ctx, chatID)
}

// HandleMessage processes one inbound text message. URLs resolve immediately
// and leave any pending dialogue untouched; free text opens a source choice.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID int64, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrMediaNotFound
	}

	if media.IsURL(text) {
		outcome, err := d.resolveURL(ctx, text)
		if err != nil {
			d.reportFailure("resolve url", err, "userId", userID)
			return nil, err
		}
		outcomes.WithLabelValues(string(outcome.Kind)).Inc()
		return outcome, nil
	}

	sources := d.machine.Begin(userID, text)
	outcomes.WithLabelValues(string(OutcomeChooseSource)).Inc()
	return &Outcome{Kind: OutcomeChooseSource, Sources: sources}, nil
}

// HandleChoice feeds a choice into the user's dialogue and resolves the query
// once the dialogue completes.
func (d *Dispatcher) HandleChoice(ctx context.Context, userID int64, choice string) (*Outcome, error) {
	choice = strings.ToLower(strings.TrimSpace(choice))

	if choice == cancelKeyword {
		if !d.machine.Cancel(userID) {
			return nil, models.ErrNoSession
		}
		outcomes.WithLabelValues(string(OutcomeCancelled)).Inc()
		return &Outcome{Kind: OutcomeCancelled}, nil
	}

	step, err := d.machine.Choose(userID, choice)
	if err != nil {
		return nil, err
	}

	if step.Decision == nil {
		outcomes.WithLabelValues(string(OutcomeChooseFormat)).Inc()
		return &Outcome{Kind: OutcomeChooseFormat, Formats: step.Formats}, nil
	}

	outcome, err := d.resolveDecision(ctx, step.Decision)
	if err != nil {
		d.reportFailure("resolve query", err, "userId", userID)
		return nil, err
	}
	outcomes.WithLabelValues(string(outcome.Kind)).Inc()
	return outcome, nil
}

// SearchInline returns up to amount playable items for a query without
// touching conversation state. Items over the duration limit are dropped from
// the results rather than failing the whole search.
func (d *Dispatcher) SearchInline(ctx context.Context, query string, amount int) ([]*models.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrMediaNotFound
	}
	if amount <= 0 {
		amount = d.searchLimit
	}

	sources := d.registry.Sources()
	if len(sources) == 0 {
		return nil, models.ErrUnknownSource
	}
	provider, _ := d.registry.Provider(sources[0])
	format := media.DefaultFormat(provider)

	key := cache.SearchKey(provider.Name(), format, amount, query)
	items, err := d.resolutions.GetOrResolveList(ctx, key, cache.ClassSearch, func(ctx context.Context) ([]*models.MediaItem, error) {
		ctx, cancel := d.withProviderTimeout(ctx)
		defer cancel()

		found, err := provider.Search(ctx, query, format, amount)
		if err != nil {
			return nil, models.NewProviderError(provider.Name(), query, err)
		}
		if len(found) == 0 {
			return nil, models.ErrMediaNotFound
		}
		return found, nil
	})
	if err != nil {
		d.reportFailure("inline search", err, "query", utils.TruncateString(query, 64))
		return nil, err
	}

	playable := lo.Filter(items, func(item *models.MediaItem, _ int) bool {
		return d.withinDurationLimit(item.Duration)
	})
	if len(playable) == 0 {
		rejections.WithLabelValues("too_long").Inc()
		return nil, models.ErrMediaTooLong
	}

	return playable, nil
}

// resolveURL resolves a direct link through the cache. Where the provider can
// report duration from metadata alone, items over the limit are rejected
// before any payload work.
func (d *Dispatcher) resolveURL(ctx context.Context, rawURL string) (*Outcome, error) {
	url := media.NormalizeURL(rawURL)

	provider, ok := d.registry.Match(url)
	if !ok {
		rejections.WithLabelValues("unknown_source").Inc()
		return nil, models.ErrUnknownSource
	}
	format := media.DefaultFormat(provider)

	key := cache.URLKey(provider.Name(), format, url)
	item, err := d.resolutions.GetOrResolveItem(ctx, key, cache.ClassURL, func(ctx context.Context) (*models.MediaItem, error) {
		ctx, cancel := d.withProviderTimeout(ctx)
		defer cancel()

		if metadataProvider, ok := provider.(media.MetadataProvider); ok {
			meta, err := metadataProvider.ResolveMetadata(ctx, url)
			if err != nil {
				return nil, models.NewProviderError(provider.Name(), url, err)
			}
			if !d.withinDurationLimit(meta.Duration) {
				return nil, models.ErrMediaTooLong
			}
		}

		resolved, err := provider.ResolveByURL(ctx, url, format)
		if err != nil {
			return nil, models.NewProviderError(provider.Name(), url, err)
		}
		return resolved, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrMediaTooLong) {
			rejections.WithLabelValues("too_long").Inc()
		}
		return nil, err
	}

	// Cached entries skip the resolver, so the limit is re-checked here.
	if !d.withinDurationLimit(item.Duration) {
		rejections.WithLabelValues("too_long").Inc()
		return nil, models.ErrMediaTooLong
	}

	d.logger.Debug("Resolved link",
		"source", item.Source, "sourceId", item.SourceID, "inline", item.HasPayload())
	return &Outcome{Kind: OutcomeMedia, Item: item}, nil
}

// resolveDecision resolves a completed dialogue by searching the chosen
// provider and delivering the top result.
func (d *Dispatcher) resolveDecision(ctx context.Context, decision *conversation.Decision) (*Outcome, error) {
	provider := decision.Provider

	key := cache.SearchKey(provider.Name(), decision.Format, 1, decision.Query)
	items, err := d.resolutions.GetOrResolveList(ctx, key, cache.ClassSearch, func(ctx context.Context) ([]*models.MediaItem, error) {
		ctx, cancel := d.withProviderTimeout(ctx)
		defer cancel()

		found, err := provider.Search(ctx, decision.Query, decision.Format, 1)
		if err != nil {
			return nil, models.NewProviderError(provider.Name(), decision.Query, err)
		}
		if len(found) == 0 {
			return nil, models.ErrMediaNotFound
		}
		return found, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			rejections.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	item := items[0]
	if !d.withinDurationLimit(item.Duration) {
		rejections.WithLabelValues("too_long").Inc()
		return nil, models.ErrMediaTooLong
	}

	return &Outcome{Kind: OutcomeMedia, Item: item}, nil
}

func (d *Dispatcher) withinDurationLimit(duration int) bool {
	return d.maxDuration <= 0 || duration <= d.maxDuration
}

func (d *Dispatcher) withProviderTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.providerTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.providerTimeout)
}

// reportFailure logs operational failures. Friendly outcomes (not found, too
// long, no session) are part of normal operation and stay out of the error
// log.
func (d *Dispatcher) reportFailure(operation string, err error, kv ...any) {
	if models.IsFriendly(err) {
		return
	}
	d.logger.Error("Dispatch failed", err, append([]any{"operation", operation}, kv...)...)
}
