// Package twitch is the platform collaborator: live follow checks for
// follower-gated animations and chat messages for pre/post-play text. All
// calls run behind a circuit breaker so a flaky Helix API can never stall
// trigger resolution.
package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nicklaw5/helix/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/fiercekittenz/gifbot/internal/metrics"
)

// Client wraps a Helix app-token client. Implements domain.FollowChecker
// and domain.ChatSender.
type Client struct {
	mu          sync.Mutex
	helix       *helix.Client
	breaker     *gobreaker.CircuitBreaker
	followGroup singleflight.Group

	broadcasterID string
	botUserID     string
}

// NewClient creates the platform client and fetches an app access token.
func NewClient(clientID, clientSecret, broadcasterID, botUserID string) (*Client, error) {
	helixClient, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helix client: %w", err)
	}

	tokenResp, err := helixClient.RequestAppAccessToken(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request app access token: %w", err)
	}
	if tokenResp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %d requesting app access token: %s", tokenResp.StatusCode, tokenResp.ErrorMessage)
	}
	helixClient.SetAppAccessToken(tokenResp.Data.AccessToken)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "helix",
		MaxRequests: 1,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		helix:         helixClient,
		breaker:       breaker,
		broadcasterID: broadcasterID,
		botUserID:     botUserID,
	}, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// IsFollower reports whether the user follows the broadcaster. Concurrent
// checks for the same user collapse into one API call.
func (c *Client) IsFollower(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	result, err, _ := c.followGroup.Do(userID, func() (any, error) {
		return c.breaker.Execute(func() (any, error) {
			return c.checkFollow(ctx, userID)
		})
	})
	if err != nil {
		metrics.FollowChecksTotal.WithLabelValues("error").Inc()
		return false, err
	}

	following := result.(bool)
	if following {
		metrics.FollowChecksTotal.WithLabelValues("following").Inc()
	} else {
		metrics.FollowChecksTotal.WithLabelValues("not_following").Inc()
	}
	return following, nil
}

func (c *Client) checkFollow(_ context.Context, userID string) (bool, error) {
	c.mu.Lock()
	resp, err := c.helix.GetChannelFollows(&helix.GetChannelFollowsParams{
		BroadcasterID: c.broadcasterID,
		UserID:        userID,
		First:         1,
	})
	c.mu.Unlock()

	if err != nil {
		return false, fmt.Errorf("follow check failed: %w", err)
	}
	if resp.StatusCode != 200 {
		return false, fmt.Errorf("unexpected status %d from follow check: %s", resp.StatusCode, resp.ErrorMessage)
	}
	return len(resp.Data.Channels) > 0, nil
}

// SendMessage posts a chat message as the bot account. Requires a
// configured bot user id; without one the message is silently skipped.
func (c *Client) SendMessage(_ context.Context, text string) error {
	if c.botUserID == "" {
		return nil
	}

	_, err := c.breaker.Execute(func() (any, error) {
		c.mu.Lock()
		resp, sendErr := c.helix.SendChatMessage(&helix.SendChatMessageParams{
			BroadcasterID: c.broadcasterID,
			SenderID:      c.botUserID,
			Message:       text,
		})
		c.mu.Unlock()

		if sendErr != nil {
			return nil, fmt.Errorf("chat send failed: %w", sendErr)
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("unexpected status %d from chat send: %s", resp.StatusCode, resp.ErrorMessage)
		}
		return nil, nil
	})
	return err
}
