// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shurcooL/graphql"
	rostererrors "github.com/sirseerhq/sirseer-roster/internal/errors"
	"github.com/sirseerhq/sirseer-roster/internal/logging"
)

// userNode is the per-login selection of the batched lookup query.
type userNode struct {
	Login      string
	DatabaseID int64 `graphql:"databaseId"`
	Name       *string
	CreatedAt  time.Time
}

func (n *userNode) metadata() AccountMetadata {
	created := n.CreatedAt
	meta := AccountMetadata{
		Identity:  Identity{Login: n.Login, ID: n.DatabaseID},
		CreatedAt: &created,
	}
	if n.Name != nil && *n.Name != "" {
		name := *n.Name
		meta.DisplayName = &name
	}
	return meta
}

// buildLookupQuery assembles a query with one aliased user(login:) field
// per login:
//
//	query($u0:String!$u1:String!){u0: user(login: $u0){login,databaseId,name,createdAt},u1: ...}
//
// The struct type is built at run time because the number of fields
// depends on the batch.
func buildLookupQuery(logins []string) (any, map[string]any) {
	fields := make([]reflect.StructField, len(logins))
	vars := make(map[string]any, len(logins))
	nodeType := reflect.TypeOf((*userNode)(nil))
	for i, login := range logins {
		alias := "u" + strconv.Itoa(i)
		fields[i] = reflect.StructField{
			Name: "U" + strconv.Itoa(i),
			Type: nodeType,
			Tag:  reflect.StructTag(fmt.Sprintf(`graphql:"%s: user(login: $%s)"`, alias, alias)),
		}
		vars[alias] = graphql.String(login)
	}
	return reflect.New(reflect.StructOf(fields)).Interface(), vars
}

// LookupUsers resolves metadata for logins with a single GraphQL request.
// The result is keyed by the login as given. Logins GitHub cannot resolve
// are omitted; the server reports them as NOT_FOUND errors alongside the
// data for the rest, so those errors do not fail the call.
func (c *GitHubClient) LookupUsers(ctx context.Context, logins []string) (map[string]AccountMetadata, error) {
	if !c.authenticated {
		return nil, fmt.Errorf("user lookup: %w", rostererrors.ErrAuthRequired)
	}
	out := make(map[string]AccountMetadata, len(logins))
	if len(logins) == 0 {
		return out, nil
	}

	query, vars := buildLookupQuery(logins)
	if err := c.gql.Query(ctx, query, vars); err != nil {
		if !isPartialResult(err, c.inspector.IsNotFoundError) {
			return nil, c.mapError(err, "user lookup")
		}
		logging.FromContext(ctx).Debug().Err(err).Int("logins", len(logins)).Msg("user lookup returned partial data")
	}

	v := reflect.ValueOf(query).Elem()
	for i, login := range logins {
		field := v.Field(i)
		if field.IsNil() {
			continue
		}
		out[login] = field.Interface().(*userNode).metadata()
	}
	return out, nil
}

// isPartialResult reports whether err is a GraphQL error list returned next
// to data, as opposed to a transport or HTTP status failure.
func isPartialResult(err error, notFound func(error) bool) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false
	}
	if strings.HasPrefix(err.Error(), "non-200 OK status code") {
		return false
	}
	return notFound(err)
}

// Viewer returns the account the token belongs to.
func (c *GitHubClient) Viewer(ctx context.Context) (Identity, error) {
	if !c.authenticated {
		return Identity{}, fmt.Errorf("viewer: %w", rostererrors.ErrAuthRequired)
	}
	var query struct {
		Viewer struct {
			Login      string
			DatabaseID int64 `graphql:"databaseId"`
		}
	}
	if err := c.gql.Query(ctx, &query, nil); err != nil {
		return Identity{}, c.mapError(err, "viewer")
	}
	return Identity{Login: query.Viewer.Login, ID: query.Viewer.DatabaseID}, nil
}
