package douyin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const searchAPIPattern = "aweme/v1/web/discover/search"

// SliderSelectors are the elements of Douyin's slider/CAPTCHA overlay.
var SliderSelectors = []string{
	".vc-captcha-verify-visibility",
	".captcha_verify_bar--title",
	".captcha-verify-image",
	".captcha-slider-btn",
	".captcha_verify_slide--button",
}

// Resolver maps a public Douyin handle (抖音号) to the account's sec_uid by
// loading the user search page and reading the search API response the page
// itself issues.
type Resolver struct {
	page        Page
	challenge   ChallengeHandler
	log         zerolog.Logger
	baseURL     string
	settleDelay time.Duration
	reloadDelay time.Duration
}

// NewResolver creates a Resolver with the default 4s settle and 2s reload
// delays.
func NewResolver(page Page, challenge ChallengeHandler, log zerolog.Logger) *Resolver {
	if challenge == nil {
		challenge = NopChallenge{}
	}
	return &Resolver{
		page:        page,
		challenge:   challenge,
		log:         log,
		baseURL:     defaultBaseURL,
		settleDelay: 4 * time.Second,
		reloadDelay: 2 * time.Second,
	}
}

// WithDelays overrides the settle delay after navigation and the delay after
// a post-challenge reload.
func (r *Resolver) WithDelays(settle, reload time.Duration) *Resolver {
	r.settleDelay = settle
	r.reloadDelay = reload
	return r
}

// SearchURL is the user search page for handle.
func (r *Resolver) SearchURL(handle string) string {
	return r.baseURL + "/search/" + url.PathEscape(handle) + "?type=user"
}

// ResolveSecUID returns the sec_uid of the account whose unique_id equals
// handle. Every failure, including no match, is reported as ok == false.
func (r *Resolver) ResolveSecUID(ctx context.Context, handle string) (string, bool) {
	log := r.log.With().Str("handle", handle).Logger()
	if handle == "" {
		return "", false
	}

	matchSearch := func(u string) bool { return strings.Contains(u, searchAPIPattern) }

	searchURL := r.SearchURL(handle)
	log.Info().Str("url", searchURL).Msg("opening search page")

	// Each armed waiter gets its own context so a superseded one releases
	// its event subscription immediately.
	armCtx, disarm := context.WithCancel(ctx)
	defer func() { disarm() }()

	wait := r.page.ExpectResponse(armCtx, matchSearch)
	if err := r.page.Navigate(ctx, searchURL); err != nil {
		log.Error().Err(err).Msg("search navigation failed")
		return "", false
	}
	if err := sleepCtx(ctx, r.settleDelay); err != nil {
		return "", false
	}

	if r.page.HasAny(SliderSelectors...) {
		log.Warn().Msg("slider verification detected")
		if err := r.challenge.AwaitClearance(ctx, "Slider verification detected, please complete it manually."); err != nil {
			log.Error().Err(err).Msg("challenge not cleared")
			return "", false
		}
		// The pre-challenge response is the blocked one; listen for the
		// response issued by the reloaded page instead.
		disarm()
		armCtx, disarm = context.WithCancel(ctx)
		wait = r.page.ExpectResponse(armCtx, matchSearch)
		if err := r.page.Reload(ctx); err != nil {
			log.Error().Err(err).Msg("reload after challenge failed")
			return "", false
		}
		if err := sleepCtx(ctx, r.reloadDelay); err != nil {
			return "", false
		}
	}

	body, err := wait()
	if err != nil {
		log.Error().Err(err).Msg("search response not captured")
		return "", false
	}

	secUID, ok, err := matchSearchUser(body, handle)
	if err != nil {
		log.Error().Err(err).Msg("search response not decodable")
		return "", false
	}
	if !ok {
		log.Info().Msg("no matching user")
		return "", false
	}
	log.Info().Str("sec_uid", secUID).Msg("matched user")
	return secUID, true
}

// matchSearchUser scans a discover/search body for the user whose unique_id
// equals handle exactly.
func matchSearchUser(body []byte, handle string) (string, bool, error) {
	var resp searchUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for _, u := range resp.UserList {
		if string(u.UserInfo.UniqueID) == handle && u.UserInfo.SecUID != "" {
			return u.UserInfo.SecUID, true, nil
		}
	}
	return "", false, nil
}
