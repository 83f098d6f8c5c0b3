package providers

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
)

// mockClient is a scriptable test double for [services.Client]
type mockClient struct {
	id       string
	service  models.ServiceType
	deviceID string
	extra    string

	account     *models.Account
	authAccount *models.Account
	authErr     error
	refreshOK   bool
}

func (c *mockClient) Identifier() string              { return c.id }
func (c *mockClient) Service() models.ServiceType     { return c.service }
func (c *mockClient) DeviceID() string                { return c.deviceID }
func (c *mockClient) SetDeviceID(id string)           { c.deviceID = id }
func (c *mockClient) ExtraData() string               { return c.extra }
func (c *mockClient) SetExtraData(data string)        { c.extra = data }
func (c *mockClient) BaseAddress() *url.URL           { return nil }
func (c *mockClient) CurrentAccount() *models.Account { return c.account }

func (c *mockClient) Authenticate(ctx context.Context) (*models.Account, error) {
	if c.authErr != nil {
		return nil, c.authErr
	}
	c.account = c.authAccount
	if c.account != nil {
		c.refreshOK = true
	}
	return c.authAccount, nil
}

func (c *mockClient) RefreshAccount(ctx context.Context) (bool, error) {
	return c.refreshOK, nil
}

func (c *mockClient) ResetData() {
	c.account = nil
	c.extra = ""
}

// memoryRecords is an in-memory [RecordStore]
type memoryRecords struct {
	mu      sync.Mutex
	records map[int]models.ApiRecord
	next    int
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[int]models.ApiRecord)}
}

func (s *memoryRecords) Save(record models.ApiRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *memoryRecords) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *memoryRecords) List() ([]models.ApiRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ApiRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryRecords) NextID() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

// stubProvider is a directly insertable [Provider]
type stubProvider struct {
	Unsupported

	id           string
	email        string
	service      models.ServiceType
	capabilities []models.Capability
	requiresAuth bool

	syncErr error
	syncs   int
	logouts int
}

func (p *stubProvider) ID() string                       { return p.id }
func (p *stubProvider) Email() string                    { return p.email }
func (p *stubProvider) Service() models.ServiceType      { return p.service }
func (p *stubProvider) RequiresAuthentication() bool     { return p.requiresAuth }
func (p *stubProvider) Capabilities() []models.Capability { return p.capabilities }
func (p *stubProvider) Client() services.Client          { return nil }

func (p *stubProvider) SyncDatabase(ctx context.Context) error {
	p.syncs++
	return p.syncErr
}

func (p *stubProvider) Resync(ctx context.Context) error { return p.SyncDatabase(ctx) }

func (p *stubProvider) Logout(ctx context.Context) error {
	p.logouts++
	return nil
}

// harness wires a manager to a scriptable mock registry.
type harness struct {
	records *memoryRecords
	manager *Manager

	mu       sync.Mutex
	accounts map[models.ServiceType]*models.Account
	created  []*mockClient
}

func newHarness(t *testing.T, youtubeClientID string) *harness {
	t.Helper()

	h := &harness{
		records:  newMemoryRecords(),
		accounts: make(map[models.ServiceType]*models.Account),
	}

	logger := shared.NewLogger(nil)
	logger.SetLevel(100) // silence test noise

	registry := &Registry{
		clients:   make(map[models.ServiceType]clientFactory),
		providers: make(map[models.ServiceType]providerFactory),
	}

	for _, service := range []models.ServiceType{
		models.ServiceGoogle, models.ServiceYouTube, models.ServiceSoundCloud,
		models.ServiceAmazon, models.ServiceOneDrive,
	} {
		service := service
		registry.clients[service] = func(id string) services.Client {
			h.mu.Lock()
			defer h.mu.Unlock()
			client := &mockClient{id: id, service: service, authAccount: h.accounts[service]}
			h.created = append(h.created, client)
			return client
		}
	}

	registry.providers[models.ServiceGoogle] = func(c services.Client) Provider {
		return NewGoogleProvider(c, h.records, logger)
	}
	registry.providers[models.ServiceYouTube] = func(c services.Client) Provider {
		return NewYouTubeProvider(c, h.records, logger)
	}
	registry.providers[models.ServiceSoundCloud] = func(c services.Client) Provider {
		return NewSoundCloudProvider(c, h.records, logger)
	}
	registry.providers[models.ServiceAmazon] = func(c services.Client) Provider {
		return NewCloudDriveProvider(c, h.records, logger)
	}
	registry.providers[models.ServiceOneDrive] = func(c services.Client) Provider {
		return NewOneDriveProvider(c, h.records, logger)
	}

	h.manager = NewManager(ManagerOpts{
		Registry:        registry,
		Records:         h.records,
		Logger:          logger,
		YouTubeClientID: youtubeClientID,
	})
	return h
}

// scriptAccount makes future clients for the service authenticate successfully.
func (h *harness) scriptAccount(service models.ServiceType, email string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accounts[service] = &models.Account{Email: email}
}

func (h *harness) insert(p Provider) {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	h.manager.insert(p)
}

func TestManagerCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateClient allocates identity", func(t *testing.T) {
		h := newHarness(t, "")

		client, err := h.manager.CreateClient(models.ServiceGoogle)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if client.Identifier() != "1" {
			t.Errorf("identifier = %q, want 1", client.Identifier())
		}
		if client.DeviceID() == "" {
			t.Error("expected a generated device id")
		}

		second, err := h.manager.CreateClient(models.ServiceGoogle)
		if err != nil {
			t.Fatalf("failed to create second client: %v", err)
		}
		if second.Identifier() == client.Identifier() {
			t.Error("expected distinct identifiers")
		}
	})

	t.Run("CreateClient for unsupported service", func(t *testing.T) {
		h := newHarness(t, "")

		if _, err := h.manager.CreateClient(models.ServiceDropBox); !errors.Is(err, shared.ErrUnsupportedService) {
			t.Errorf("expected ErrUnsupportedService, got %v", err)
		}
	})

	t.Run("AddProvider persists and indexes", func(t *testing.T) {
		h := newHarness(t, "")

		client := &mockClient{id: "1", service: models.ServiceSoundCloud}
		provider := h.manager.AddProvider(client)
		if provider == nil {
			t.Fatal("expected a provider")
		}

		if h.manager.Get("1") == nil {
			t.Error("expected provider in the collection")
		}
		if _, ok := h.records.records[1]; !ok {
			t.Error("expected config record persisted")
		}
	})

	t.Run("RemoveProvider restores the prior key set", func(t *testing.T) {
		h := newHarness(t, "")

		first := &mockClient{id: "1", service: models.ServiceSoundCloud}
		second := &mockClient{id: "2", service: models.ServiceGoogle}
		h.manager.AddProvider(first)
		h.manager.AddProvider(second)

		h.manager.RemoveProvider(second)

		if h.manager.Get("2") != nil {
			t.Error("expected provider 2 removed")
		}
		if h.manager.Get("1") == nil {
			t.Error("expected provider 1 untouched")
		}
		if _, ok := h.records.records[2]; ok {
			t.Error("expected record 2 deleted")
		}
		if len(h.manager.Providers()) != 1 {
			t.Errorf("expected 1 provider, got %d", len(h.manager.Providers()))
		}
	})

	t.Run("Lookup returns first in creation order", func(t *testing.T) {
		h := newHarness(t, "")

		h.insert(&stubProvider{id: "a", service: models.ServiceSoundCloud})
		h.insert(&stubProvider{id: "b", service: models.ServiceSoundCloud})

		if got := h.manager.Lookup(models.ServiceSoundCloud); got == nil || got.ID() != "a" {
			t.Errorf("Lookup = %v, want provider a", got)
		}
		if got := h.manager.Lookup(models.ServiceTunez); got != nil {
			t.Errorf("Lookup for absent service = %v, want nil", got)
		}
	})

	t.Run("Load restores providers from records", func(t *testing.T) {
		h := newHarness(t, "")
		h.records.Save(models.ApiRecord{ID: 1, Service: models.ServiceGoogle, DeviceID: "d1", ExtraData: "blob"})
		h.records.Save(models.ApiRecord{ID: 2, Service: models.ServiceDropBox})
		h.records.Save(models.ApiRecord{ID: 3, Service: models.ServiceSoundCloud, DeviceID: "d3"})
		h.records.next = 3

		if err := h.manager.Load(ctx); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		if len(h.manager.Providers()) != 2 {
			t.Fatalf("expected 2 providers, got %d", len(h.manager.Providers()))
		}

		provider := h.manager.Get("1")
		if provider == nil {
			t.Fatal("expected provider 1 restored")
		}
		client := provider.Client().(*mockClient)
		if client.DeviceID() != "d1" || client.ExtraData() != "blob" {
			t.Errorf("client state not restored: device %q extra %q", client.DeviceID(), client.ExtraData())
		}
	})

	t.Run("accessors", func(t *testing.T) {
		h := newHarness(t, "")
		h.insert(&stubProvider{id: "1", service: models.ServiceGoogle, email: "g@x.y", requiresAuth: true,
			capabilities: []models.Capability{models.CapabilitySearchable}})
		h.insert(&stubProvider{id: "2", service: models.ServiceSoundCloud,
			capabilities: []models.Capability{models.CapabilitySearchable}})
		h.insert(&stubProvider{id: "3", service: models.ServiceAmazon,
			capabilities: []models.Capability{models.CapabilityNone}})

		if got := h.manager.GetAccount(models.ServiceGoogle); got != "g@x.y" {
			t.Errorf("GetAccount = %q", got)
		}
		if got := h.manager.CountAuthenticatedGoogleAccounts(); got != 1 {
			t.Errorf("CountAuthenticatedGoogleAccounts = %d, want 1", got)
		}

		searchable := h.manager.SearchableServiceTypes()
		if len(searchable) != 2 || searchable[0] != models.ServiceGoogle || searchable[1] != models.ServiceSoundCloud {
			t.Errorf("SearchableServiceTypes = %v", searchable)
		}
	})
}

func TestManagerSync(t *testing.T) {
	ctx := context.Background()

	t.Run("failures are isolated", func(t *testing.T) {
		h := newHarness(t, "")
		good1 := &stubProvider{id: "1", service: models.ServiceSoundCloud}
		bad := &stubProvider{id: "2", service: models.ServiceGoogle, syncErr: errors.New("network down")}
		good2 := &stubProvider{id: "3", service: models.ServiceAmazon}
		for _, p := range []*stubProvider{good1, bad, good2} {
			h.insert(p)
		}

		err := h.manager.StartSync(ctx)
		if !errors.Is(err, shared.ErrProviderOperation) {
			t.Fatalf("expected ErrProviderOperation, got %v", err)
		}
		if !strings.Contains(err.Error(), "1 of 3") {
			t.Errorf("expected aggregate count in error, got %v", err)
		}

		for _, p := range []*stubProvider{good1, bad, good2} {
			if p.syncs != 1 {
				t.Errorf("provider %s synced %d times, want 1", p.id, p.syncs)
			}
		}
	})

	t.Run("all succeed", func(t *testing.T) {
		h := newHarness(t, "")
		h.insert(&stubProvider{id: "1", service: models.ServiceSoundCloud})
		h.insert(&stubProvider{id: "2", service: models.ServiceGoogle})

		if err := h.manager.ReSync(ctx); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.manager.StartSync(ctx); err != nil {
			t.Errorf("expected nil error for empty collection, got %v", err)
		}
	})

	t.Run("concurrent sync on one provider is rejected", func(t *testing.T) {
		h := newHarness(t, "")
		provider := NewSoundCloudProvider(&mockClient{id: "1", service: models.ServiceSoundCloud, refreshOK: true}, h.records, h.manager.logger)

		provider.syncMu.Lock()
		defer provider.syncMu.Unlock()

		if err := provider.SyncDatabase(ctx); !errors.Is(err, shared.ErrSyncInFlight) {
			t.Errorf("expected ErrSyncInFlight, got %v", err)
		}
	})
}

func TestLogInOut(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider creates and logs in", func(t *testing.T) {
		h := newHarness(t, "")
		h.scriptAccount(models.ServiceSoundCloud, "user@example.com")

		h.manager.LogInOut(ctx, models.ServiceSoundCloud)

		provider := h.manager.Lookup(models.ServiceSoundCloud)
		if provider == nil {
			t.Fatal("expected a signed-in provider")
		}
		if provider.Email() != "user@example.com" {
			t.Errorf("provider email = %q", provider.Email())
		}
		if len(h.records.records) != 1 {
			t.Errorf("expected 1 persisted record, got %d", len(h.records.records))
		}
	})

	t.Run("abandoned login leaves no trace", func(t *testing.T) {
		h := newHarness(t, "")
		// No scripted account: Authenticate resolves to (nil, nil).

		h.manager.LogInOut(ctx, models.ServiceSoundCloud)

		if h.manager.Lookup(models.ServiceSoundCloud) != nil {
			t.Error("expected no provider after abandoned login")
		}
		if len(h.records.records) != 0 {
			t.Errorf("expected no persisted records, got %d", len(h.records.records))
		}
	})

	t.Run("provider without email resyncs", func(t *testing.T) {
		h := newHarness(t, "")
		stub := &stubProvider{id: "1", service: models.ServiceSoundCloud}
		h.insert(stub)

		h.manager.LogInOut(ctx, models.ServiceSoundCloud)

		if stub.syncs != 1 {
			t.Errorf("expected 1 resync, got %d", stub.syncs)
		}
		if stub.logouts != 0 {
			t.Errorf("expected no logout, got %d", stub.logouts)
		}
		if h.manager.Lookup(models.ServiceSoundCloud) == nil {
			t.Error("provider should stay in the collection")
		}
	})

	t.Run("signed-in provider logs out", func(t *testing.T) {
		h := newHarness(t, "")
		stub := &stubProvider{id: "1", service: models.ServiceSoundCloud, email: "user@example.com"}
		h.insert(stub)

		h.manager.LogInOut(ctx, models.ServiceSoundCloud)

		if stub.logouts != 1 {
			t.Errorf("expected 1 logout, got %d", stub.logouts)
		}
		if h.manager.Lookup(models.ServiceSoundCloud) != nil {
			t.Error("expected provider removed from the collection")
		}
	})

	t.Run("Logout without a provider", func(t *testing.T) {
		h := newHarness(t, "")
		if err := h.manager.Logout(ctx, models.ServiceSoundCloud); !errors.Is(err, shared.ErrProviderNotFound) {
			t.Errorf("expected ErrProviderNotFound, got %v", err)
		}
	})

	t.Run("CreateAndLogin reports success", func(t *testing.T) {
		h := newHarness(t, "")
		h.scriptAccount(models.ServiceGoogle, "g@example.com")

		if !h.manager.CreateAndLogin(ctx, models.ServiceGoogle) {
			t.Error("expected successful login")
		}
		if h.manager.CreateAndLogin(ctx, models.ServiceDropBox) {
			t.Error("expected failure for unsupported service")
		}
	})
}

func TestCreateYouTube(t *testing.T) {
	ctx := context.Background()

	countYouTube := func(m *Manager) (total int, defaults int) {
		for _, p := range m.Providers() {
			if p.Service() == models.ServiceYouTube {
				total++
				if p.ID() == DefaultYouTubeID {
					defaults++
				}
			}
		}
		return total, defaults
	}

	t.Run("disabled without client credentials", func(t *testing.T) {
		h := newHarness(t, "")

		if err := h.manager.CreateYouTube(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total, _ := countYouTube(h.manager); total != 0 {
			t.Errorf("expected no youtube providers, got %d", total)
		}
	})

	t.Run("no google account gets the anonymous default", func(t *testing.T) {
		h := newHarness(t, "yt-client-id")

		if err := h.manager.CreateYouTube(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total, defaults := countYouTube(h.manager)
		if total != 1 || defaults != 1 {
			t.Errorf("expected exactly the default instance, got total=%d defaults=%d", total, defaults)
		}
	})

	t.Run("google account upgrades the default", func(t *testing.T) {
		h := newHarness(t, "yt-client-id")
		h.scriptAccount(models.ServiceYouTube, "yt@example.com")
		h.insert(&stubProvider{id: "g", service: models.ServiceGoogle, email: "g@example.com"})
		h.manager.addDefaultYouTube()

		if err := h.manager.CreateYouTube(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total, defaults := countYouTube(h.manager)
		if total != 1 || defaults != 0 {
			t.Errorf("expected one authenticated instance, got total=%d defaults=%d", total, defaults)
		}
		if got := h.manager.GetAccount(models.ServiceYouTube); got != "yt@example.com" {
			t.Errorf("youtube account = %q", got)
		}
	})

	t.Run("abandoned upgrade degrades to the default", func(t *testing.T) {
		h := newHarness(t, "yt-client-id")
		// No scripted YouTube account: the interactive step is abandoned.
		h.insert(&stubProvider{id: "g", service: models.ServiceGoogle, email: "g@example.com"})
		h.manager.addDefaultYouTube()

		if err := h.manager.CreateYouTube(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total, defaults := countYouTube(h.manager)
		if total != 1 || defaults != 1 {
			t.Errorf("expected the default instance back, got total=%d defaults=%d", total, defaults)
		}
	})

	t.Run("authenticated instance is left alone", func(t *testing.T) {
		h := newHarness(t, "yt-client-id")
		h.insert(&stubProvider{id: "g", service: models.ServiceGoogle, email: "g@example.com"})
		h.insert(&stubProvider{id: "5", service: models.ServiceYouTube, email: "yt@example.com"})

		if err := h.manager.CreateYouTube(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total, defaults := countYouTube(h.manager)
		if total != 1 || defaults != 0 {
			t.Errorf("expected the existing instance untouched, got total=%d defaults=%d", total, defaults)
		}
		if h.manager.Get("5") == nil {
			t.Error("expected existing youtube provider to survive")
		}
	})
}

func TestDefaultYouTubeProvider(t *testing.T) {
	provider := NewDefaultYouTubeProvider(shared.NewLogger(nil))
	ctx := context.Background()

	if provider.ID() != DefaultYouTubeID {
		t.Errorf("ID() = %q, want %q", provider.ID(), DefaultYouTubeID)
	}
	if provider.Email() != "" {
		t.Errorf("Email() = %q, want empty", provider.Email())
	}
	if provider.Client() != nil {
		t.Error("expected no backing client")
	}
	if provider.RequiresAuthentication() {
		t.Error("the anonymous instance requires no authentication")
	}
	if err := provider.SyncDatabase(ctx); err != nil {
		t.Errorf("sync should be a no-op, got %v", err)
	}
	if err := provider.Logout(ctx); err != nil {
		t.Errorf("logout should be a no-op, got %v", err)
	}
	if _, err := provider.Search(ctx, "query"); !errors.Is(err, shared.ErrCapabilityNotSupported) {
		t.Errorf("expected ErrCapabilityNotSupported, got %v", err)
	}
}
