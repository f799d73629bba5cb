package repository

import (
	"context"
	"net/url"
	"strings"
)

// API is the transport repositories call through. *client.Client satisfies it.
type API interface {
	JSON(ctx context.Context, method, path string, body, out interface{}) error
	PublicJSON(ctx context.Context, method, path string, body, out interface{}) error
}

// path joins escaped segments onto a resource root.
func path(root string, segments ...string) string {
	var b strings.Builder
	b.WriteString(root)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
