// package models defines the data model for the music service aggregation core
package models

import (
	"fmt"
	"strings"
)

// ServiceType identifies a distinct remote music service.
//
// It is a closed enumeration used as a registry key, a persistence tag, and a display key.
type ServiceType int

const (
	ServiceUnknown ServiceType = iota
	ServiceAmazon
	ServiceGoogle
	ServiceOneDrive
	ServiceSoundCloud
	ServiceYouTube
	ServiceTunez
	ServiceDropBox
	ServiceFileSystem
	ServiceLocalLibrary
)

func (s ServiceType) String() string {
	switch s {
	case ServiceAmazon:
		return "Amazon"
	case ServiceGoogle:
		return "Google"
	case ServiceOneDrive:
		return "OneDrive"
	case ServiceSoundCloud:
		return "SoundCloud"
	case ServiceYouTube:
		return "YouTube"
	case ServiceTunez:
		return "Tunez"
	case ServiceDropBox:
		return "DropBox"
	case ServiceFileSystem:
		return "FileSystem"
	case ServiceLocalLibrary:
		return "LocalLibrary"
	default:
		return "Unknown"
	}
}

// Title returns the human-readable display name for the service.
//
// Falls back to the enumeration's default string form for unmapped types.
func (s ServiceType) Title() string {
	switch s {
	case ServiceAmazon:
		return "Amazon Cloud Drive"
	case ServiceDropBox:
		return "Dropbox"
	case ServiceGoogle:
		return "Google Play Music"
	case ServiceSoundCloud:
		return "SoundCloud"
	case ServiceYouTube:
		return "YouTube"
	case ServiceOneDrive:
		return "OneDrive"
	default:
		return s.String()
	}
}

// Icon returns the icon resource path for the service, or an empty string when none is mapped.
func (s ServiceType) Icon() string {
	switch s {
	case ServiceAmazon:
		return "svg/amazon.svg"
	case ServiceDropBox:
		return "svg/dropbox-outline.svg"
	case ServiceGoogle:
		return "svg/googleMusic.svg"
	case ServiceSoundCloud:
		return "svg/soundCloudColor.svg"
	case ServiceYouTube:
		return "svg/youtubeLogo.svg"
	case ServiceOneDrive:
		return "svg/onedrive.svg"
	case ServiceTunez:
		return "svg/tunez.svg"
	default:
		return ""
	}
}

// Normalized maps retired service identities onto their modern counterparts.
//
// Persisted records written by old versions tagged filesystem-backed accounts as
// [ServiceFileSystem]; those records are OneDrive accounts.
func (s ServiceType) Normalized() ServiceType {
	if s == ServiceFileSystem {
		return ServiceOneDrive
	}
	return s
}

// ParseServiceType resolves a (case-insensitive) service name to its [ServiceType].
func ParseServiceType(name string) (ServiceType, error) {
	for _, s := range []ServiceType{
		ServiceAmazon, ServiceGoogle, ServiceOneDrive, ServiceSoundCloud,
		ServiceYouTube, ServiceTunez, ServiceDropBox, ServiceFileSystem, ServiceLocalLibrary,
	} {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return ServiceUnknown, fmt.Errorf("unknown service %q", name)
}

// Capability flags what catalog operations a provider variant supports.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilitySearchable
	CapabilityPlaylists
	CapabilityRating
)

func (c Capability) String() string {
	switch c {
	case CapabilitySearchable:
		return "searchable"
	case CapabilityPlaylists:
		return "playlists"
	case CapabilityRating:
		return "rating"
	default:
		return "none"
	}
}

// ApiRecord is the durable per-account configuration record.
//
// Created when a provider authenticates, updated whenever credentials change,
// deleted on logout. The record id doubles as the client identifier (as a string).
type ApiRecord struct {
	ID        int
	Service   ServiceType
	DeviceID  string
	ExtraData string
}

// Identifier returns the record id in the string form clients carry.
func (r ApiRecord) Identifier() string {
	return fmt.Sprintf("%d", r.ID)
}

// Account is the result of a successful authentication.
//
// A nil *Account from an authentication attempt means the attempt was abandoned
// or failed without raising an error.
type Account struct {
	Identifier string
	Email      string
}

// Track is the shared track model every provider syncs into.
//
// ServiceID ties the track back to the provider that ingested it; ID is stable
// per service (for Tunez it is the remote catalog UUID).
type Track struct {
	ID            string
	ServiceID     string
	Title         string
	Artist        string
	AlbumArtist   string
	Album         string
	Genre         string
	Duration      int // seconds
	Disc          int
	Number        int
	FileExtension string
	AlbumArtwork  []string
	ArtistArtwork []string
}
