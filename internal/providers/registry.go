package providers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/services"
	"github.com/pnavk/gMusic/internal/shared"
	"github.com/pnavk/gMusic/internal/tunez"
)

// Deps carries the collaborators concrete clients and providers are built with.
type Deps struct {
	Config    *shared.Config
	Records   RecordStore
	Library   Library
	Logger    *log.Logger
	Prompter  services.Prompter
	Transport http.RoundTripper
	CacheDir  string
}

type clientFactory func(identifier string) services.Client

type providerFactory func(client services.Client) Provider

// Registry is the static dispatch table from a service identity to its
// concrete client and provider implementations.
//
// Construction failures for unregistered identities surface as
// [shared.ErrUnsupportedService]; callers report them and continue.
type Registry struct {
	clients   map[models.ServiceType]clientFactory
	providers map[models.ServiceType]providerFactory
	deps      Deps
}

// NewRegistry builds the dispatch tables for every supported service.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	if deps.Config == nil {
		deps.Config = shared.DefaultConfig()
	}

	r := &Registry{
		clients:   make(map[models.ServiceType]clientFactory),
		providers: make(map[models.ServiceType]providerFactory),
		deps:      deps,
	}

	creds := deps.Config.Credentials

	r.clients[models.ServiceGoogle] = func(id string) services.Client {
		return services.NewGoogleClient(id, deps.Transport, creds.Google, deps.Prompter)
	}
	r.clients[models.ServiceYouTube] = func(id string) services.Client {
		return services.NewYouTubeClient(id, deps.Transport, creds.YouTube, deps.Prompter)
	}
	r.clients[models.ServiceSoundCloud] = func(id string) services.Client {
		return services.NewSoundCloudClient(id, deps.Transport, creds.SoundCloud, deps.Prompter)
	}
	r.clients[models.ServiceAmazon] = func(id string) services.Client {
		return services.NewCloudDriveClient(id, deps.Transport, creds.Amazon, deps.Prompter)
	}
	r.clients[models.ServiceOneDrive] = func(id string) services.Client {
		return services.NewOneDriveClient(id, deps.Transport, creds.OneDrive, deps.Prompter)
	}
	r.clients[models.ServiceTunez] = func(id string) services.Client {
		return tunez.NewClient(id, deps.Transport, creds.Tunez, deps.Prompter)
	}

	r.providers[models.ServiceGoogle] = func(c services.Client) Provider {
		return NewGoogleProvider(c, deps.Records, deps.Logger)
	}
	r.providers[models.ServiceYouTube] = func(c services.Client) Provider {
		return NewYouTubeProvider(c, deps.Records, deps.Logger)
	}
	r.providers[models.ServiceSoundCloud] = func(c services.Client) Provider {
		return NewSoundCloudProvider(c, deps.Records, deps.Logger)
	}
	r.providers[models.ServiceAmazon] = func(c services.Client) Provider {
		return NewCloudDriveProvider(c, deps.Records, deps.Logger)
	}
	r.providers[models.ServiceOneDrive] = func(c services.Client) Provider {
		return NewOneDriveProvider(c, deps.Records, deps.Logger)
	}
	r.providers[models.ServiceTunez] = func(c services.Client) Provider {
		cache := filepath.Join(deps.CacheDir, fmt.Sprintf("tunez-%s.catalog", c.Identifier()))
		return tunez.NewProvider(c, deps.Library, deps.Records, cache, deps.Logger)
	}

	return r
}

// NewClient constructs a fresh client for the service with the given
// identifier. The retired FileSystem identity normalizes to OneDrive.
func (r *Registry) NewClient(service models.ServiceType, identifier string) (services.Client, error) {
	service = service.Normalized()
	factory, ok := r.clients[service]
	if !ok {
		return nil, fmt.Errorf("%w: no client registered for %s", shared.ErrUnsupportedService, service)
	}
	return factory(identifier), nil
}

// NewProvider wraps an already constructed client in its provider type.
func (r *Registry) NewProvider(client services.Client) (Provider, error) {
	factory, ok := r.providers[client.Service()]
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for %s", shared.ErrUnsupportedService, client.Service())
	}
	return factory(client), nil
}

// Supported reports whether the service has a registered client type.
func (r *Registry) Supported(service models.ServiceType) bool {
	_, ok := r.clients[service.Normalized()]
	return ok
}
