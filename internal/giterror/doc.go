// Package giterror classifies errors returned by the GitHub REST and GraphQL
// APIs. REST failures carry an HTTP status inside go-github's ErrorResponse;
// GraphQL and transport failures only carry a message, so those are matched
// by text.
package giterror
