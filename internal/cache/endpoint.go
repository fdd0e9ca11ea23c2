package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strings"
)

// Tag labels cached query results so related mutations can invalidate them
// in bulk.
type Tag string

// Kind distinguishes read endpoints from write endpoints.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Endpoint declares one operation of the remote API: how to reach it and
// which tags it provides (queries) or invalidates (mutations).
type Endpoint struct {
	Name        string
	Kind        Kind
	Method      string
	Path        string // may contain {id}
	Provides    []Tag
	Invalidates []Tag
}

// Resolve substitutes arg for the {id} placeholder.
func (e Endpoint) Resolve(arg string) string {
	if !strings.Contains(e.Path, "{id}") {
		return e.Path
	}
	return strings.ReplaceAll(e.Path, "{id}", url.PathEscape(arg))
}

func (e Endpoint) provides(tags []Tag) bool {
	for _, t := range tags {
		if slices.Contains(e.Provides, t) {
			return true
		}
	}
	return false
}

// Key identifies a cache entry.
type Key struct {
	Endpoint string
	Arg      string
}

func (k Key) String() string {
	if k.Arg == "" {
		return k.Endpoint
	}
	return k.Endpoint + "(" + k.Arg + ")"
}

// Response is the normalized payload of a successful request: the
// envelope's data plus the server's message.
type Response struct {
	Data    json.RawMessage
	Message string
}

// Decode unmarshals the response data into dest.
func (r Response) Decode(dest any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, dest)
}

// Transport performs one request against the remote API.
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, method, path string, body any) (Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, method, path string, body any) (Response, error) {
	return f(ctx, method, path, body)
}
