// Package keys is the single source of truth for cache key generation.
// Every key used anywhere in the application is produced here, so that the
// same logical resource always maps to the same key regardless of call site,
// and so that kind-scoped invalidation patterns cannot collide across kinds.
//
// Key format: {domain}:{identifier}[:{sub-resource}], e.g.
//
//	playlist:abc123
//	playlist:abc123:songs
//	user:abc123:playlists
//	public:playlists:2:20
//
// All functions are pure: no I/O, no randomness, no time-based salts.
package keys

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Playlist returns the key for a single playlist entity.
func Playlist(id string) string {
	return "playlist:" + id
}

// PlaylistSongs returns the key for a playlist's song listing.
func PlaylistSongs(id string) string {
	return "playlist:" + id + ":songs"
}

// User returns the key for a single user entity.
func User(id string) string {
	return "user:" + id
}

// UserPlaylists returns the key for a user's playlist listing.
func UserPlaylists(userID string) string {
	return "user:" + userID + ":playlists"
}

// PublicPlaylists returns the key for one page of the public playlist listing.
func PublicPlaylists(page, limit int) string {
	return fmt.Sprintf("public:playlists:%d:%d", page, limit)
}

// Search returns the key for one page of search results. The free-text query
// is normalized and base64-encoded so that equal queries always produce equal
// keys and the encoded form can never contain the ':' separator.
func Search(query string, page, limit int) string {
	return fmt.Sprintf("search:%s:%d:%d", encodeQuery(query), page, limit)
}

// RequestKey builds a key from the pieces of an arbitrary read request:
// prefix, caller identity, path, and raw query parameters. Used by the
// response-caching middleware's default key generator.
func RequestKey(prefix, callerID, path string, query url.Values) string {
	parts := []string{prefix, callerID, strings.Trim(path, "/")}
	if len(query) > 0 {
		parts = append(parts, encodeQuery(NormalizeQuery(query)))
	}
	return strings.Join(parts, ":")
}

// PlaylistView returns the key for a rendered playlist response as seen by
// one caller. Scoping by caller keeps private playlists from leaking through
// the response cache; the "playlist:{id}" prefix keeps the key inside the
// entity's invalidation pattern.
func PlaylistView(id, callerID string) string {
	return "playlist:" + id + ":view:" + encodeQuery(callerID)
}

// PlaylistSongsView returns the key for a rendered song-listing response as
// seen by one caller.
func PlaylistSongsView(id, callerID string) string {
	return "playlist:" + id + ":songs:view:" + encodeQuery(callerID)
}

// Pattern helpers. These feed the invalidation middleware and the admin
// surface; keeping them here guarantees a pattern's prefix matches the keys
// the functions above generate.

// PlaylistPattern matches a playlist entity and all of its sub-resources.
func PlaylistPattern(id string) string {
	return "playlist:" + id + "*"
}

// AllPlaylistsPattern matches every playlist-kind key.
func AllPlaylistsPattern() string {
	return "playlist:*"
}

// UserPlaylistsPattern matches a user's playlist listings.
func UserPlaylistsPattern(userID string) string {
	return "user:" + userID + ":playlists*"
}

// PublicPlaylistsPattern matches every page of the public listing.
func PublicPlaylistsPattern() string {
	return "public:playlists*"
}

// SearchPattern matches every cached search result page.
func SearchPattern() string {
	return "search:*"
}

// NormalizeQuery renders query parameters in a stable order: keys sorted,
// multiple values per key sorted, url-encoded. Two requests that differ only
// in parameter order normalize to the same string.
func NormalizeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// encodeQuery makes an arbitrary string binary-safe for use as a key segment.
func encodeQuery(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
