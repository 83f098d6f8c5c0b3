package providers

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
)

// DefaultYouTubeID is the fixed id of the anonymous-access YouTube provider.
//
// YouTube can be browsed without an account; the default instance exists
// whenever no authenticated instance does. The fallback policy guarantees the
// two never coexist.
const DefaultYouTubeID = "youtube"

// YouTubeProvider is the streaming variant. With a backing client it is an
// authenticated account; without one it is the default anonymous instance.
type YouTubeProvider struct {
	accountProvider
}

// NewYouTubeProvider creates an authenticated YouTube provider over a client.
func NewYouTubeProvider(client services.Client, records RecordStore, logger *log.Logger) *YouTubeProvider {
	return &YouTubeProvider{accountProvider{
		client:       client,
		capabilities: []models.Capability{models.CapabilitySearchable},
		requiresAuth: true,
		records:      records,
		logger:       logger,
	}}
}

// NewDefaultYouTubeProvider creates the anonymous, clientless instance.
func NewDefaultYouTubeProvider(logger *log.Logger) *YouTubeProvider {
	return &YouTubeProvider{accountProvider{
		capabilities: []models.Capability{models.CapabilitySearchable},
		requiresAuth: false,
		logger:       logger,
	}}
}

func (p *YouTubeProvider) ID() string {
	if p.client == nil {
		return DefaultYouTubeID
	}
	return p.client.Identifier()
}

func (p *YouTubeProvider) Service() models.ServiceType { return models.ServiceYouTube }

func (p *YouTubeProvider) Email() string {
	if p.client == nil {
		return ""
	}
	return p.accountProvider.Email()
}

func (p *YouTubeProvider) Client() services.Client {
	if p.client == nil {
		return nil
	}
	return p.client
}

// SyncDatabase is a no-op for the anonymous instance; there is no account
// state or persisted record to maintain.
func (p *YouTubeProvider) SyncDatabase(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.accountProvider.SyncDatabase(ctx)
}

func (p *YouTubeProvider) Resync(ctx context.Context) error {
	return p.SyncDatabase(ctx)
}

func (p *YouTubeProvider) Logout(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.accountProvider.Logout(ctx)
}
