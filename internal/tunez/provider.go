package tunez

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
)

// Library is the shared track ingestion pipeline the provider syncs into.
type Library interface {
	ProcessTracks(ctx context.Context, tracks []models.Track) error
	FinalizeProcessing(ctx context.Context, serviceID string) error
	RemoveService(ctx context.Context, serviceID string) error
}

// Records persists the provider's config record.
type Records interface {
	Save(record models.ApiRecord) error
	Delete(id int) error
}

// Provider implements the provider contract against a Tunez server.
//
// Every catalog-mutation operation is structurally unsupported for this
// variant; they fail with [shared.ErrCapabilityNotSupported].
type Provider struct {
	client    services.Client
	server    *Server
	library   Library
	records   Records
	cachePath string
	logger    *log.Logger

	// Serializes syncs on this instance; concurrent syncs would corrupt the
	// disk cache and duplicate ingested tracks.
	syncMu sync.Mutex
}

// NewProvider creates a provider over an already constructed Tunez client.
func NewProvider(client services.Client, library Library, records Records, cachePath string, logger *log.Logger) *Provider {
	p := &Provider{
		client:    client,
		library:   library,
		records:   records,
		cachePath: cachePath,
		logger:    logger,
	}
	p.ensureServer()
	return p
}

// ensureServer builds the server handle once the client knows its address.
func (p *Provider) ensureServer() *Server {
	if p.server != nil {
		return p.server
	}
	base := p.client.BaseAddress()
	if base == nil {
		return nil
	}
	var transport http.RoundTripper
	var rateLimit float64
	if c, ok := p.client.(*Client); ok {
		transport = c.Transport()
		rateLimit = c.RateLimit()
	}
	p.server = NewServerForURL(base, transport, rateLimit)
	return p.server
}

func (p *Provider) ID() string                  { return p.client.Identifier() }
func (p *Provider) Service() models.ServiceType { return models.ServiceTunez }
func (p *Provider) RequiresAuthentication() bool { return false }
func (p *Provider) Client() services.Client      { return p.client }

func (p *Provider) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityNone}
}

// Email reports the server address; Tunez has no account identity beyond it.
func (p *Provider) Email() string {
	if base := p.client.BaseAddress(); base != nil {
		return base.String()
	}
	return ""
}

// SyncDatabase fetches a full catalog snapshot, maps it into the shared track
// model, hands it to the ingestion pipeline, and re-persists the config record.
func (p *Provider) SyncDatabase(ctx context.Context) error {
	if !p.syncMu.TryLock() {
		return fmt.Errorf("%w: %s", shared.ErrSyncInFlight, p.ID())
	}
	defer p.syncMu.Unlock()

	server := p.ensureServer()
	if server == nil {
		return fmt.Errorf("%w: no server address", shared.ErrNotAuthenticated)
	}

	catalog, err := server.FetchCatalog(ctx, p.cachePath)
	if err != nil {
		return fmt.Errorf("%w: fetch catalog: %v", shared.ErrProviderOperation, err)
	}

	tracks := make([]models.Track, 0, len(catalog))
	for _, entry := range catalog {
		track, err := p.mapTrack(entry)
		if err != nil {
			return fmt.Errorf("%w: map track %d: %v", shared.ErrProviderOperation, entry.UUID, err)
		}
		tracks = append(tracks, track)
	}

	if err := p.library.ProcessTracks(ctx, tracks); err != nil {
		return fmt.Errorf("%w: process tracks: %v", shared.ErrProviderOperation, err)
	}
	if err := p.library.FinalizeProcessing(ctx, p.ID()); err != nil {
		return fmt.Errorf("%w: finalize: %v", shared.ErrProviderOperation, err)
	}

	// Credentials or extra data may have been refreshed during the round trip.
	record, err := recordFromClient(p.client)
	if err != nil {
		return err
	}
	if err := p.records.Save(record); err != nil {
		return fmt.Errorf("%w: save record: %v", shared.ErrProviderOperation, err)
	}

	return nil
}

// Resync re-runs the full sync; there is no incremental mode.
func (p *Provider) Resync(ctx context.Context) error {
	return p.SyncDatabase(ctx)
}

// Logout deletes the persisted record, removes this provider's tracks from the
// shared library, and resets client-local state.
func (p *Provider) Logout(ctx context.Context) error {
	record, err := recordFromClient(p.client)
	if err != nil {
		return err
	}
	if err := p.records.Delete(record.ID); err != nil {
		return fmt.Errorf("%w: delete record: %v", shared.ErrProviderOperation, err)
	}
	if err := p.library.RemoveService(ctx, p.ID()); err != nil {
		return fmt.Errorf("%w: remove tracks: %v", shared.ErrProviderOperation, err)
	}
	p.client.ResetData()
	p.server = nil
	return nil
}

// mapTrack converts one catalog entry into the shared track model.
func (p *Provider) mapTrack(entry CatalogTrack) (models.Track, error) {
	track := models.Track{
		ID:            strconv.Itoa(entry.UUID),
		ServiceID:     p.ID(),
		Title:         entry.Name,
		Artist:        entry.TrackArtist,
		AlbumArtist:   entry.AlbumArtist,
		Album:         entry.Album,
		Duration:      entry.Duration,
		Disc:          entry.Disc,
		Number:        entry.Number,
		FileExtension: "mp3",
	}

	if entry.AlbumArt != "" {
		base := p.client.BaseAddress()
		albumArt, err := EncodeMessage(base, MessageFetchAlbumArt, FetchAlbumArtMessage{
			AlbumArtist: entry.AlbumArtist,
			Album:       entry.Album,
		})
		if err != nil {
			return track, err
		}
		artistArt, err := EncodeMessage(base, MessageFetchArtistArt, FetchArtistArtMessage{
			AlbumArtist: entry.AlbumArtist,
		})
		if err != nil {
			return track, err
		}
		track.AlbumArtwork = []string{albumArt}
		track.ArtistArtwork = []string{artistArt}
	}

	return track, nil
}

// PlaybackURL synthesizes the streaming URL for a previously ingested track.
func (p *Provider) PlaybackURL(track models.Track) (string, error) {
	uuid, err := strconv.Atoi(track.ID)
	if err != nil {
		return "", fmt.Errorf("%w: track id %q is not a tunez uuid", shared.ErrInvalidInput, track.ID)
	}
	base := p.client.BaseAddress()
	if base == nil {
		return "", fmt.Errorf("%w: no server address", shared.ErrNotAuthenticated)
	}
	return EncodeMessage(base, MessageFetchTrack, FetchTrackMessage{UUID: uuid, Offset: 0})
}

// DownloadURL is the playback URL; Tunez serves both from the same message.
func (p *Provider) DownloadURL(track models.Track) (string, error) {
	return p.PlaybackURL(track)
}

func (p *Provider) AddToPlaylist(context.Context, []models.Track, string) error {
	return fmt.Errorf("%w: add to playlist", shared.ErrCapabilityNotSupported)
}

func (p *Provider) MoveTrack(context.Context, string, string, int) error {
	return fmt.Errorf("%w: move track", shared.ErrCapabilityNotSupported)
}

func (p *Provider) DeletePlaylist(context.Context, string) error {
	return fmt.Errorf("%w: delete playlist", shared.ErrCapabilityNotSupported)
}

func (p *Provider) SetRating(context.Context, string, int) error {
	return fmt.Errorf("%w: rating", shared.ErrCapabilityNotSupported)
}

func (p *Provider) ShareURL(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: sharing", shared.ErrCapabilityNotSupported)
}

func (p *Provider) Search(context.Context, string) ([]models.Track, error) {
	return nil, fmt.Errorf("%w: search", shared.ErrCapabilityNotSupported)
}

func recordFromClient(client services.Client) (models.ApiRecord, error) {
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
