package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
)

// Manager owns the process-lifetime provider collection and orchestrates
// authentication, persistence, and catalog synchronization across it.
//
// The collection is keyed by provider id with creation order preserved, so
// "first matching" lookups are deterministic. Login and logout take the write
// lock; sync fan-outs snapshot under the read lock. Callers should not
// interleave login/logout with an in-flight sync.
type Manager struct {
	mu         sync.RWMutex
	collection map[string]Provider
	order      []string

	registry *Registry
	records  RecordStore
	library  Library
	logger   *log.Logger
	spinner  Spinner

	// Gates the YouTube/Google fallback policy; empty disables it.
	youtubeClientID string
}

// ManagerOpts contains the collaborators a Manager is built with.
type ManagerOpts struct {
	Registry        *Registry
	Records         RecordStore
	Library         Library
	Logger          *log.Logger
	Spinner         Spinner
	YouTubeClientID string
}

// NewManager creates an empty manager; call [Manager.Load] to populate it.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Spinner == nil {
		opts.Spinner = NoSpinner{}
	}
	return &Manager{
		collection:      make(map[string]Provider),
		registry:        opts.Registry,
		records:         opts.Records,
		library:         opts.Library,
		logger:          opts.Logger,
		spinner:         opts.Spinner,
		youtubeClientID: opts.YouTubeClientID,
	}
}

// Load populates the collection from the persisted config records, then runs
// the streaming fallback policy as a trailing step.
//
// A bad record is reported and skipped; it never aborts the batch.
func (m *Manager) Load(ctx context.Context) error {
	records, err := m.records.List()
	if err != nil {
		return fmt.Errorf("failed to load config records: %w", err)
	}

	for _, record := range records {
		if err := m.loadRecord(record); err != nil {
			m.logger.Error("failed to load provider from record", "id", record.ID, "service", record.Service, "error", err)
		}
	}

	return m.CreateYouTube(ctx)
}

// loadRecord reconstructs one provider from its persisted record.
func (m *Manager) loadRecord(record models.ApiRecord) error {
	client, err := m.registry.NewClient(record.Service, record.Identifier())
	if err != nil {
		return err
	}
	client.SetDeviceID(record.DeviceID)
	client.SetExtraData(record.ExtraData)

	provider, err := m.registry.NewProvider(client)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(provider)
	return nil
}

// CreateClient constructs a fresh client for the service with a newly
// allocated identifier and device id.
func (m *Manager) CreateClient(service models.ServiceType) (services.Client, error) {
	id, err := m.records.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate client id: %w", err)
	}

	client, err := m.registry.NewClient(service, strconv.Itoa(id))
	if err != nil {
		m.reportNotImplemented("service type", service.String())
		return nil, err
	}
	client.SetDeviceID(shared.GenerateDeviceID())
	return client, nil
}

// AddProvider wraps an already-authenticated client in its provider type,
// persists its config record, and inserts it into the collection.
//
// Returns nil when no provider type is registered for the client; the failure
// is reported, not raised.
func (m *Manager) AddProvider(client services.Client) Provider {
	provider, err := m.registry.NewProvider(client)
	if err != nil {
		m.logger.Error("failed to create provider", "service", client.Service(), "error", err)
		m.reportNotImplemented("service type", client.Service().String())
		return nil
	}

	if err := m.SaveClient(client); err != nil {
		m.logger.Error("failed to persist config record", "id", client.Identifier(), "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(provider)
	return provider
}

// RemoveProvider deletes the client's persisted record and drops its
// collection entry.
func (m *Manager) RemoveProvider(client services.Client) {
	record, err := m.recordForClient(client)
	if err != nil {
		m.logger.Error("failed to derive config record", "id", client.Identifier(), "error", err)
		return
	}

	m.mu.Lock()
	m.remove(client.Identifier())
	m.mu.Unlock()

	if err := m.records.Delete(record.ID); err != nil {
		m.logger.Error("failed to delete config record", "id", record.ID, "error", err)
	}
}

// SaveClient upserts the client's config record. Providers call this after a
// sync so refreshed credentials are not lost.
func (m *Manager) SaveClient(client services.Client) error {
	record, err := m.recordForClient(client)
	if err != nil {
		return err
	}
	return m.records.Save(record)
}

// recordForClient derives the persisted record, falling back to the
// FileSystem tag for client types the registry does not know.
func (m *Manager) recordForClient(client services.Client) (models.ApiRecord, error) {
	record, err := RecordFromClient(client)
	if err != nil {
		return models.ApiRecord{}, err
	}
	if !m.registry.Supported(record.Service) {
		m.reportNotImplemented("client type", record.Service.String())
		record.Service = models.ServiceFileSystem
	}
	return record, nil
}

// Lookup returns the first provider (in creation order) for the service, or
// nil when none exists.
func (m *Manager) Lookup(service models.ServiceType) Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if p := m.collection[id]; p.Service() == service {
			return p
		}
	}
	return nil
}

// Get returns the provider with the exact id, or nil.
func (m *Manager) Get(id string) Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection[id]
}

// Providers returns a creation-ordered snapshot of the collection.
func (m *Manager) Providers() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Provider, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.collection[id])
	}
	return out
}

// GetAccount returns the email of the first provider for the service.
func (m *Manager) GetAccount(service models.ServiceType) string {
	if p := m.Lookup(service); p != nil {
		return p.Email()
	}
	return ""
}

// CountAuthenticatedGoogleAccounts counts providers that are Google accounts
// requiring authentication. Recomputed on demand.
func (m *Manager) CountAuthenticatedGoogleAccounts() int {
	count := 0
	for _, p := range m.Providers() {
		if p.RequiresAuthentication() && p.Service() == models.ServiceGoogle {
			count++
		}
	}
	return count
}

// SearchableServiceTypes returns the distinct service types of searchable
// providers, in creation order.
func (m *Manager) SearchableServiceTypes() []models.ServiceType {
	seen := make(map[models.ServiceType]bool)
	var out []models.ServiceType
	for _, p := range m.Providers() {
		for _, c := range p.Capabilities() {
			if c == models.CapabilitySearchable && !seen[p.Service()] {
				seen[p.Service()] = true
				out = append(out, p.Service())
			}
		}
	}
	return out
}

// StartSync fans a full sync out to every provider concurrently and waits for
// all to finish. Per-provider failures are isolated and logged; the returned
// error reports only the aggregate outcome.
func (m *Manager) StartSync(ctx context.Context) error {
	return m.fanOut(ctx, func(ctx context.Context, p Provider) error {
		return p.SyncDatabase(ctx)
	})
}

// ReSync fans a resync out to every provider under a scoped "Syncing"
// indicator, released on every exit path.
func (m *Manager) ReSync(ctx context.Context) error {
	done := m.spinner.Begin("Syncing")
	defer done()
	return m.fanOut(ctx, func(ctx context.Context, p Provider) error {
		return p.Resync(ctx)
	})
}

func (m *Manager) fanOut(ctx context.Context, op func(context.Context, Provider) error) error {
	snapshot := m.Providers()
	errs := make([]error, len(snapshot))

	var wg sync.WaitGroup
	for i, provider := range snapshot {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			if err := op(ctx, p); err != nil {
				errs[i] = err
				m.logger.Error("provider sync failed", "id", p.ID(), "service", p.Service(), "error", err)
			}
		}(i, provider)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d providers failed to sync", shared.ErrProviderOperation, failed, len(snapshot))
	}
	return nil
}

// LogInOut drives the login state machine for a service: no provider means
// create-and-login, a provider with no email means resync, a provider with an
// email means logout.
//
// Cancellation is swallowed; other errors are logged, never raised.
func (m *Manager) LogInOut(ctx context.Context, service models.ServiceType) {
	provider := m.Lookup(service)
	switch {
	case provider == nil:
		m.CreateAndLogin(ctx, service)

	case provider.Email() == "":
		if err := provider.Resync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("resync failed", "service", service, "error", err)
		}

	default:
		if err := m.Logout(ctx, service); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("logout failed", "service", service, "error", err)
		}
	}
}

// Logout signs the provider registered for service out and drops it from the
// collection. Returns [shared.ErrProviderNotFound] when none is registered.
func (m *Manager) Logout(ctx context.Context, service models.ServiceType) error {
	provider := m.Lookup(service)
	if provider == nil {
		return fmt.Errorf("%w: %s", shared.ErrProviderNotFound, service)
	}

	if err := provider.Logout(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.remove(provider.ID())
	m.mu.Unlock()

	return nil
}

// CreateAndLogin is the composed login-from-scratch path. Reports success;
// failures resolve to false and are logged, never raised.
func (m *Manager) CreateAndLogin(ctx context.Context, service models.ServiceType) bool {
	client, err := m.CreateClient(service)
	if err != nil {
		m.logger.Error("failed to create client", "service", service, "error", err)
		return false
	}

	client.ResetData()
	account, err := client.Authenticate(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Error("authentication failed", "service", service, "error", err)
		}
		return false
	}
	if account == nil {
		// Abandoned, not an error.
		return false
	}

	provider := m.AddProvider(client)
	if provider == nil {
		return false
	}

	done := m.spinner.Begin("Syncing Database")
	defer done()
	if err := provider.Resync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("initial sync failed", "service", service, "error", err)
	}
	return true
}

// CreateYouTube runs the streaming fallback policy once after load.
//
// YouTube is usable anonymously, but an authenticated Google account unlocks
// the richer authenticated channel. The policy prefers the richer channel and
// never leaves both a default and an authenticated instance coexisting. An
// ambiguous state (multiple non-default instances) is left as-is.
func (m *Manager) CreateYouTube(ctx context.Context) error {
	if m.youtubeClientID == "" {
		return nil
	}

	var youtubes []Provider
	for _, p := range m.Providers() {
		if p.Service() == models.ServiceYouTube {
			youtubes = append(youtubes, p)
		}
	}
	for _, p := range youtubes {
		if p.ID() != DefaultYouTubeID {
			return nil
		}
	}

	hasGoogle := m.Lookup(models.ServiceGoogle) != nil

	if hasGoogle {
		if len(youtubes) > 0 {
			m.mu.Lock()
			m.remove(youtubes[0].ID())
			m.mu.Unlock()
		}

		client, err := m.CreateClient(models.ServiceYouTube)
		if err != nil {
			return err
		}
		account, err := client.Authenticate(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("youtube authentication failed", "error", err)
		}
		if account == nil {
			// Degrade gracefully to anonymous access.
			m.addDefaultYouTube()
			return nil
		}
		m.AddProvider(client)
		return nil
	}

	if len(youtubes) == 0 {
		m.addDefaultYouTube()
	}
	return nil
}

func (m *Manager) addDefaultYouTube() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(NewDefaultYouTubeProvider(m.logger))
}

// reportNotImplemented is the user-visible "not implemented" surface.
func (m *Manager) reportNotImplemented(key, value string) {
	m.logger.Warn("not implemented", key, value)
}

// insert adds a provider, preserving creation order. Callers hold the write lock.
func (m *Manager) insert(p Provider) {
	id := p.ID()
	if _, exists := m.collection[id]; !exists {
		m.order = append(m.order, id)
	}
	m.collection[id] = p
}

// remove drops a provider by id. Callers hold the write lock.
func (m *Manager) remove(id string) {
	if _, exists := m.collection[id]; !exists {
		return
	}
	delete(m.collection, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
