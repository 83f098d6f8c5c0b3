// package providers implements the uniform provider abstraction over remote
// music services and the manager that orchestrates authentication,
// persistence, and catalog synchronization across them.
package providers

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
)

// Provider is the uniform contract every service implementation satisfies.
//
// Non-default providers own exactly one [services.Client] for their lifetime;
// the degenerate variants with no backing client use a fixed default id.
type Provider interface {
	// ID is the provider instance identity: the client identifier, or a
	// fixed default id for clientless variants.
	ID() string

	// Email is empty until the provider has completed a successful login.
	Email() string

	Service() models.ServiceType
	RequiresAuthentication() bool
	Capabilities() []models.Capability

	// Client returns the backing client, or nil for clientless variants.
	Client() services.Client

	// SyncDatabase performs a full catalog sync into the shared library.
	SyncDatabase(ctx context.Context) error

	// Resync re-runs the sync from scratch.
	Resync(ctx context.Context) error

	// Logout deletes the provider's persisted record, removes its tracks
	// from the shared library, and resets client-local state. Collection
	// removal is the manager's job.
	Logout(ctx context.Context) error

	CatalogEditor
}

// CatalogEditor is the closed set of catalog-mutation operations.
//
// Variants that structurally cannot perform an operation return
// [shared.ErrCapabilityNotSupported] instead of attempting an emulation.
type CatalogEditor interface {
	AddToPlaylist(ctx context.Context, tracks []models.Track, playlist string) error
	MoveTrack(ctx context.Context, trackID, playlist string, position int) error
	DeletePlaylist(ctx context.Context, playlist string) error
	SetRating(ctx context.Context, trackID string, rating int) error
	ShareURL(ctx context.Context, trackID string) (string, error)
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// RecordStore is the persistence collaborator for service config records.
type RecordStore interface {
	Save(record models.ApiRecord) error
	Delete(id int) error
	List() ([]models.ApiRecord, error)
	NextID() (int, error)
}

// Library is the shared track ingestion pipeline.
type Library interface {
	ProcessTracks(ctx context.Context, tracks []models.Track) error
	FinalizeProcessing(ctx context.Context, serviceID string) error
	RemoveService(ctx context.Context, serviceID string) error
}

// Spinner scopes a user-visible progress indicator around an operation.
// Begin returns the release func; callers defer it so the indicator is
// released on every exit path.
type Spinner interface {
	Begin(title string) (done func())
}

// NoSpinner is a no-op [Spinner].
type NoSpinner struct{}

func (NoSpinner) Begin(string) func() { return func() {} }

// Unsupported is an embeddable [CatalogEditor] that declines every operation.
type Unsupported struct{}

func (Unsupported) AddToPlaylist(context.Context, []models.Track, string) error {
	return fmt.Errorf("%w: add to playlist", shared.ErrCapabilityNotSupported)
}

func (Unsupported) MoveTrack(context.Context, string, string, int) error {
	return fmt.Errorf("%w: move track", shared.ErrCapabilityNotSupported)
}

func (Unsupported) DeletePlaylist(context.Context, string) error {
	return fmt.Errorf("%w: delete playlist", shared.ErrCapabilityNotSupported)
}

func (Unsupported) SetRating(context.Context, string, int) error {
	return fmt.Errorf("%w: rating", shared.ErrCapabilityNotSupported)
}

func (Unsupported) ShareURL(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: sharing", shared.ErrCapabilityNotSupported)
}

func (Unsupported) Search(context.Context, string) ([]models.Track, error) {
	return nil, fmt.Errorf("%w: search", shared.ErrCapabilityNotSupported)
}

// RecordFromClient derives the persisted config record from a client.
func RecordFromClient(client services.Client) (models.ApiRecord, error) {
	id, err := strconv.Atoi(client.Identifier())
	if err != nil {
		return models.ApiRecord{}, fmt.Errorf("%w: client identifier %q is not a record id", shared.ErrInvalidInput, client.Identifier())
	}
	return models.ApiRecord{
		ID:        id,
		Service:   client.Service(),
		DeviceID:  client.DeviceID(),
		ExtraData: client.ExtraData(),
	}, nil
}

// accountProvider is the shared implementation for providers whose catalog
// lives behind an OAuth-backed client. The concrete wire clients are external
// collaborators; sync here refreshes credentials and re-persists the record.
type accountProvider struct {
	Unsupported

	client       services.Client
	capabilities []models.Capability
	requiresAuth bool
	records      RecordStore
	logger       *log.Logger

	syncMu sync.Mutex
}

func (p *accountProvider) ID() string                { return p.client.Identifier() }
func (p *accountProvider) Service() models.ServiceType {
	return p.client.Service()
}
func (p *accountProvider) RequiresAuthentication() bool { return p.requiresAuth }
func (p *accountProvider) Capabilities() []models.Capability {
	return p.capabilities
}
func (p *accountProvider) Client() services.Client { return p.client }

func (p *accountProvider) Email() string {
	if account := p.client.CurrentAccount(); account != nil {
		return account.Email
	}
	return ""
}

// SyncDatabase refreshes the session and re-persists the config record;
// credentials may have rotated during the round trip.
func (p *accountProvider) SyncDatabase(ctx context.Context) error {
	if !p.syncMu.TryLock() {
		return fmt.Errorf("%w: %s", shared.ErrSyncInFlight, p.ID())
	}
	defer p.syncMu.Unlock()

	ok, err := p.client.RefreshAccount(ctx)
	if err != nil {
		return fmt.Errorf("%w: refresh %s: %v", shared.ErrProviderOperation, p.Service(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, p.Service())
	}

	record, err := RecordFromClient(p.client)
	if err != nil {
		return err
	}
	if err := p.records.Save(record); err != nil {
		return fmt.Errorf("%w: save record: %v", shared.ErrProviderOperation, err)
	}
	return nil
}

func (p *accountProvider) Resync(ctx context.Context) error {
	return p.SyncDatabase(ctx)
}

func (p *accountProvider) Logout(ctx context.Context) error {
	record, err := RecordFromClient(p.client)
	if err != nil {
		return err
	}
	if err := p.records.Delete(record.ID); err != nil {
		return fmt.Errorf("%w: delete record: %v", shared.ErrProviderOperation, err)
	}
	p.client.ResetData()
	return nil
}

// GoogleProvider wraps an authenticated Google Play Music client.
type GoogleProvider struct{ accountProvider }

// NewGoogleProvider creates a provider over an already constructed client.
func NewGoogleProvider(client services.Client, records RecordStore, logger *log.Logger) *GoogleProvider {
	return &GoogleProvider{accountProvider{
		client:       client,
		capabilities: []models.Capability{models.CapabilitySearchable, models.CapabilityPlaylists, models.CapabilityRating},
		requiresAuth: true,
		records:      records,
		logger:       logger,
	}}
}

// SoundCloudProvider wraps an authenticated SoundCloud client.
type SoundCloudProvider struct{ accountProvider }

func NewSoundCloudProvider(client services.Client, records RecordStore, logger *log.Logger) *SoundCloudProvider {
	return &SoundCloudProvider{accountProvider{
		client:       client,
		capabilities: []models.Capability{models.CapabilitySearchable},
		requiresAuth: true,
		records:      records,
		logger:       logger,
	}}
}

// CloudDriveProvider wraps an Amazon Cloud Drive client.
type CloudDriveProvider struct{ accountProvider }

func NewCloudDriveProvider(client services.Client, records RecordStore, logger *log.Logger) *CloudDriveProvider {
	return &CloudDriveProvider{accountProvider{
		client:       client,
		capabilities: []models.Capability{models.CapabilityNone},
		requiresAuth: true,
		records:      records,
		logger:       logger,
	}}
}

// OneDriveProvider wraps a OneDrive client.
type OneDriveProvider struct{ accountProvider }

func NewOneDriveProvider(client services.Client, records RecordStore, logger *log.Logger) *OneDriveProvider {
	return &OneDriveProvider{accountProvider{
		client:       client,
		capabilities: []models.Capability{models.CapabilityNone},
		requiresAuth: true,
		records:      records,
		logger:       logger,
	}}
}
